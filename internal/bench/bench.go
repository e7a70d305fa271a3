// Package bench drives OrderedMapOf with a file of key/value pairs and times
// the fill, copy and find phases against Go's built-in map.
package bench

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/natefinch/atomic"

	"github.com/llxisdsh/omap"
)

// Result holds the timings of one container.
type Result struct {
	Label       string        `json:"label"`
	Fill        time.Duration `json:"fill_ns"`     //nolint:tagliatelle // snake_case for report file
	Copy        time.Duration `json:"copy_ns"`     //nolint:tagliatelle // snake_case for report file
	Find        time.Duration `json:"find_ns"`     //nolint:tagliatelle // snake_case for report file
	Found       bool          `json:"found"`
	ProbeValue  string        `json:"probe_value"` //nolint:tagliatelle // snake_case for report file
	Size        int           `json:"size"`
	BucketCount int           `json:"bucket_count,omitempty"` //nolint:tagliatelle // snake_case for report file
}

// Report is the outcome of Run.
type Report struct {
	Config   Config         `json:"config"`
	Pairs    int            `json:"pairs"`
	Ordered  Result         `json:"ordered"`
	Baseline Result         `json:"baseline"`
	Stats    *omap.MapStats `json:"stats"`
}

// eachPair splits input into whitespace-separated tokens and calls fn for
// every key/value pair. A trailing key without a value is dropped. It
// returns the number of pairs seen.
func eachPair(input []byte, fn func(key, value string)) int {
	scanner := bufio.NewScanner(bytes.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), len(input)+1)
	scanner.Split(bufio.ScanWords)

	n := 0

	for scanner.Scan() {
		key := scanner.Text()
		if !scanner.Scan() {
			break
		}

		fn(key, scanner.Text())
		n++
	}

	return n
}

// Options translates the configuration into map options.
func (c Config) Options() []func(*omap.MapConfig) {
	options := []func(*omap.MapConfig){
		omap.WithMaxBucketSize(c.MaxBucketSize),
		omap.WithPresize(c.Presize),
	}
	if c.Hasher == HasherXXHash {
		options = append(options, omap.WithKeyHasher(omap.XXHashString))
	}

	return options
}

// Run tokenizes input and inserts every pair as it is read, erases the
// first entry, copies the map once and looks up cfg.Probe, timing each
// phase. Tokenizing is part of the fill time; reading the file is not. The
// same sequence is run on a built-in map as the baseline.
func Run(input []byte, cfg Config) Report {
	report := Report{Config: cfg}

	m := omap.NewOrderedMapOf[string, string](cfg.Options()...)

	t1 := time.Now()

	report.Pairs = eachPair(input, func(key, value string) {
		m.Insert(key, value)
	})

	if begin := m.Begin(); !begin.IsEnd() {
		m.Erase(begin)
	}

	t2 := time.Now()
	c := m.Clone()
	t3 := time.Now()
	it := m.Find(cfg.Probe)
	t4 := time.Now()

	report.Ordered = Result{
		Label:       "omap",
		Fill:        t2.Sub(t1),
		Copy:        t3.Sub(t2),
		Find:        t4.Sub(t3),
		Found:       !it.IsEnd(),
		Size:        c.Size(),
		BucketCount: c.BucketCount(),
	}
	if !it.IsEnd() {
		report.Ordered.ProbeValue = it.Value()
	}

	report.Stats = c.Stats()
	report.Baseline = runBaseline(input, cfg.Probe)

	return report
}

// runBaseline mirrors Run on a built-in map. A built-in map has no first
// entry, so the first inserted key is deleted instead.
func runBaseline(input []byte, probe string) Result {
	t1 := time.Now()
	m := make(map[string]string)

	var first string

	n := eachPair(input, func(key, value string) {
		if first == "" {
			first = key
		}

		if _, ok := m[key]; !ok {
			m[key] = value
		}
	})

	if n > 0 {
		delete(m, first)
	}

	t2 := time.Now()
	c := make(map[string]string, len(m))

	for k, v := range m {
		c[k] = v
	}

	t3 := time.Now()
	v, found := m[probe]
	t4 := time.Now()

	return Result{
		Label:      "builtin",
		Fill:       t2.Sub(t1),
		Copy:       t3.Sub(t2),
		Find:       t4.Sub(t3),
		Found:      found,
		ProbeValue: v,
		Size:       len(c),
	}
}

// WriteText prints a human readable report, baseline first, followed by the
// map statistics.
func (r *Report) WriteText(w io.Writer) {
	for _, res := range []Result{r.Baseline, r.Ordered} {
		fmt.Fprintf(w, "inserting data to %s. Result:\n", res.Label)

		if res.Found {
			fmt.Fprintf(w, "found: %s\n", res.ProbeValue)
		} else {
			fmt.Fprintln(w, "nothing is found.")
		}

		fmt.Fprintf(w, "elapsed time of filling: %dms\n", res.Fill.Milliseconds())
		fmt.Fprintf(w, "elapsed time of copying: %dms\n", res.Copy.Milliseconds())
		fmt.Fprintf(w, "elapsed time of finding: %dns\n", res.Find.Nanoseconds())
		fmt.Fprintf(w, "elements in map: %d\n", res.Size)

		if res.BucketCount > 0 {
			fmt.Fprintf(w, "buckets_count: %d\n", res.BucketCount)
		}

		fmt.Fprintln(w)
	}

	if r.Stats != nil {
		fmt.Fprint(w, r.Stats.ToString())
	}
}

// WriteJSON writes the report to path atomically.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	writeErr := atomic.WriteFile(path, bytes.NewReader(append(data, '\n')))
	if writeErr != nil {
		return fmt.Errorf("writing report %s: %w", path, writeErr)
	}

	return nil
}
