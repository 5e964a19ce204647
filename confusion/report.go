package confusion

import "fmt"
import "io"
import "text/tabwriter"

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo prints the matrix as a table, true classes down and predicted
// classes across, followed by recall and precision per class
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 1, ' ', tabwriter.AlignRight)

	fmt.Fprint(tw, "true\\pred\t")
	for p := 0; p < m.classes; p++ {
		fmt.Fprintf(tw, "%d\t", p)
	}
	fmt.Fprint(tw, "recall\t\n")
	for t := 0; t < m.classes; t++ {
		fmt.Fprintf(tw, "%d\t", t)
		for p := 0; p < m.classes; p++ {
			fmt.Fprintf(tw, "%d\t", m.Count(t, p))
		}
		fmt.Fprintf(tw, "%.3f\t\n", m.Recall(t))
	}
	fmt.Fprint(tw, "precision\t")
	for p := 0; p < m.classes; p++ {
		fmt.Fprintf(tw, "%.3f\t", m.Precision(p))
	}
	fmt.Fprint(tw, "\t\n")
	if err := tw.Flush(); err != nil {
		return cw.n, err
	}
	_, err := fmt.Fprintf(cw, "samples %d accuracy %.4f\n", m.Total(), m.Accuracy())
	return cw.n, err
}
