// Package config holds the knobs of a training run, read from a key: value
// file and command line flags sharing the same names
package config

import "bufio"
import "flag"
import "fmt"
import "io"
import "os"
import "sort"
import "strconv"
import "strings"

import "github.com/pkg/errors"

// ErrConfiguration is returned for invalid settings, before training starts
var ErrConfiguration = errors.New("configuration error")

// Models lists the reference trainer architectures
var Models = []string{"linear", "mlp"}

// Tail policies for the short final batch of an epoch
const (
	TailSkip = "skip"
	TailPad  = "pad"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	TrainSet     string
	TestSet      string
	Model        string
	BatchSize    int
	LearningRate float64
	Momentum     float64
	Hidden       int
	DatasetSize  int // 0 counts the records of TrainSet
	Epochs       int
	Capacity     int // history capacity, 0 is unbounded
	NumClasses   int
	SampleShape  []int
	Tail         string
	Seed         int64
	Threads      int // 0 uses every logical core
	DstModel     string
	Resume       bool
}

// Default returns the settings of the MNIST example
func Default() Config {
	return Config{
		TrainSet:     "assets/mnist_train.csv",
		TestSet:      "assets/mnist_test.csv",
		Model:        "linear",
		BatchSize:    1,
		LearningRate: 0.001,
		Momentum:     0,
		Hidden:       1568,
		Epochs:       1,
		Capacity:     1000,
		NumClasses:   10,
		SampleShape:  []int{1, 28, 28},
		Tail:         TailSkip,
		Seed:         1,
	}
}

// FeatureCount is the flattened size of one sample
func (c *Config) FeatureCount() int {
	var n = 1
	for _, d := range c.SampleShape {
		n *= d
	}
	return n
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.Wrapf(ErrConfiguration, "batch-size must be > 0 (got %d)", c.BatchSize)
	}
	if c.NumClasses <= 1 {
		return errors.Wrapf(ErrConfiguration, "num-classes must be > 1 (got %d)", c.NumClasses)
	}
	if c.NumClasses > 256 {
		return errors.Wrapf(ErrConfiguration, "num-classes must fit a byte label (got %d)", c.NumClasses)
	}
	if len(c.SampleShape) == 0 {
		return errors.Wrap(ErrConfiguration, "sample-shape is empty")
	}
	for _, d := range c.SampleShape {
		if d <= 0 {
			return errors.Wrapf(ErrConfiguration, "sample-shape %v has a non-positive dimension", c.SampleShape)
		}
	}
	if c.DatasetSize < 0 {
		return errors.Wrapf(ErrConfiguration, "dataset-size must be >= 0 (got %d)", c.DatasetSize)
	}
	if c.DatasetSize > 0 && c.DatasetSize < c.BatchSize {
		return errors.Wrapf(ErrConfiguration, "dataset-size %d is smaller than one batch of %d", c.DatasetSize, c.BatchSize)
	}
	if c.Epochs <= 0 {
		return errors.Wrapf(ErrConfiguration, "epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.Capacity < 0 {
		return errors.Wrapf(ErrConfiguration, "capacity must be >= 0 (got %d)", c.Capacity)
	}
	if c.LearningRate <= 0 {
		return errors.Wrapf(ErrConfiguration, "learning-rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return errors.Wrapf(ErrConfiguration, "momentum must be in [0, 1) (got %g)", c.Momentum)
	}
	if c.Tail != TailSkip && c.Tail != TailPad {
		return errors.Wrapf(ErrConfiguration, "tail must be %q or %q (got %q)", TailSkip, TailPad, c.Tail)
	}
	if err := CheckModel(c.Model); err != nil {
		return err
	}
	if c.Model == "mlp" && c.Hidden <= 0 {
		return errors.Wrapf(ErrConfiguration, "hidden must be > 0 for mlp (got %d)", c.Hidden)
	}
	return nil
}

// CheckModel rejects unknown architecture names
func CheckModel(name string) error {
	for _, m := range Models {
		if m == name {
			return nil
		}
	}
	return errors.Wrapf(ErrConfiguration, "unknown model %q, try one of %v", name, Models)
}

// ParseShape parses "1,28,28" into dimensions
func ParseShape(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "sample-shape %q: %v", s, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func formatShape(shape []int) string {
	var parts = make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// Load reads a key: value file on top of base. Keys are the flag names.
func Load(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, errors.Wrap(err, "open config")
	}
	defer f.Close()
	return parse(f, base)
}

func parse(r io.Reader, cfg Config) (Config, error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return cfg, errors.Wrapf(ErrConfiguration, "line %d: missing ':'", lineNo)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		if err := cfg.Set(key, value); err != nil {
			return cfg, errors.Wrapf(err, "line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type field struct {
	usage string
	get   func(c *Config) string
	set   func(c *Config, v string) error
}

func intField(usage string, p func(c *Config) *int) field {
	return field{usage,
		func(c *Config) string { return strconv.Itoa(*p(c)) },
		func(c *Config, v string) (err error) { *p(c), err = strconv.Atoi(v); return },
	}
}

func floatField(usage string, p func(c *Config) *float64) field {
	return field{usage,
		func(c *Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		func(c *Config, v string) (err error) { *p(c), err = strconv.ParseFloat(v, 64); return },
	}
}

func stringField(usage string, p func(c *Config) *string) field {
	return field{usage,
		func(c *Config) string { return *p(c) },
		func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

var fields = map[string]field{
	"trainset":      stringField("training dataset: a .csv file or a directory of MNIST idx .gz files", func(c *Config) *string { return &c.TrainSet }),
	"testset":       stringField("test dataset for evaluation", func(c *Config) *string { return &c.TestSet }),
	"model":         stringField("which model to use: linear, mlp", func(c *Config) *string { return &c.Model }),
	"batch-size":    intField("minibatch size", func(c *Config) *int { return &c.BatchSize }),
	"learning-rate": floatField("learning rate", func(c *Config) *float64 { return &c.LearningRate }),
	"momentum":      floatField("momentum", func(c *Config) *float64 { return &c.Momentum }),
	"hidden":        intField("hidden units of the mlp model", func(c *Config) *int { return &c.Hidden }),
	"dataset-size":  intField("records per epoch, 0 counts the training set", func(c *Config) *int { return &c.DatasetSize }),
	"epochs":        intField("passes over the training set", func(c *Config) *int { return &c.Epochs }),
	"capacity":      intField("how many recent samples the history keeps, 0 for all", func(c *Config) *int { return &c.Capacity }),
	"num-classes":   intField("number of classes", func(c *Config) *int { return &c.NumClasses }),
	"tail":          stringField("short final batch policy: skip, pad", func(c *Config) *string { return &c.Tail }),
	"threads":       intField("worker goroutines per step, 0 uses every core", func(c *Config) *int { return &c.Threads }),
	"dstmodel":      stringField("model destination .json.lzw file", func(c *Config) *string { return &c.DstModel }),
	"seed": {"weight initialization seed",
		func(c *Config) string { return strconv.FormatInt(c.Seed, 10) },
		func(c *Config, v string) (err error) { c.Seed, err = strconv.ParseInt(v, 10, 64); return },
	},
	"sample-shape": {"sample shape, comma separated",
		func(c *Config) string { return formatShape(c.SampleShape) },
		func(c *Config, v string) (err error) { c.SampleShape, err = ParseShape(v); return },
	},
	"resume": {"resume training from dstmodel",
		func(c *Config) string { return strconv.FormatBool(c.Resume) },
		func(c *Config, v string) (err error) { c.Resume, err = strconv.ParseBool(v); return },
	},
}

// Set assigns the setting named key
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return errors.Wrapf(ErrConfiguration, "unknown key %s", key)
	}
	if err := f.set(c, value); err != nil {
		if errors.Is(err, ErrConfiguration) {
			return err
		}
		return errors.Wrapf(ErrConfiguration, "%s: %v", key, err)
	}
	return nil
}

// Get formats the setting named key
func (c *Config) Get(key string) string {
	if f, ok := fields[key]; ok {
		return f.get(c)
	}
	return ""
}

type flagValue struct {
	c   *Config
	key string
}

func (v flagValue) String() string {
	if v.c == nil {
		return ""
	}
	return v.c.Get(v.key)
}

func (v flagValue) Set(s string) error {
	return v.c.Set(v.key, s)
}

// IsBoolFlag lets -resume be given without a value
func (v flagValue) IsBoolFlag() bool {
	return v.key == "resume"
}

// RegisterFlags binds every setting to a flag of the same name on fs
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	var keys = make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fs.Var(flagValue{c, k}, k, fields[k].usage)
	}
}

// Overlay applies the flags explicitly set on fs to c, so they win over a
// config file loaded after parsing
func (c *Config) Overlay(fs *flag.FlagSet) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		if _, ok := fields[f.Name]; ok {
			err = c.Set(f.Name, f.Value.String())
		}
	})
	return err
}

func (c Config) String() string {
	return fmt.Sprintf("model=%s batch-size=%d learning-rate=%g momentum=%g epochs=%d sample-shape=%s classes=%d tail=%s",
		c.Model, c.BatchSize, c.LearningRate, c.Momentum, c.Epochs, formatShape(c.SampleShape), c.NumClasses, c.Tail)
}
