package netgen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceLVS/pkg/tool"
)

// EnvColumns sets the width of netgen's side-by-side report.
const EnvColumns = "NETGEN_COLUMNS"

// DefaultColumns is used when Comparator.Columns is zero.
const DefaultColumns = 60

// Comparator runs netgen on generated scripts.
type Comparator struct {
	Runner  tool.Runner
	Binary  string // default "netgen"
	Columns int
	Env     map[string]string // extra child environment
}

// Compare runs "netgen -batch source script". Output is streamed line by
// line to console and logPath as it arrives. Only a failed invocation is an
// error; whether the circuits match is left to the report.
func (c *Comparator) Compare(ctx context.Context, script, logPath string, console io.Writer) error {
	binary := c.Binary
	if binary == "" {
		binary = "netgen"
	}
	columns := c.Columns
	if columns <= 0 {
		columns = DefaultColumns
	}

	logFile, err := tool.CreateLog(logPath, console)
	if err != nil {
		return fmt.Errorf("netgen: %w", err)
	}
	defer logFile.Close()

	env := map[string]string{EnvColumns: strconv.Itoa(columns)}
	for k, v := range c.Env {
		env[k] = v
	}
	_, err = c.Runner.Run(ctx, tool.Command{
		Name:   binary,
		Args:   []string{"-batch", "source", script},
		Env:    env,
		Stream: logFile,
	})
	return err
}

// Report is the JSON summary netgen writes next to the text report.
type Report []Circuit

// Circuit is the comparison result of one cell pair.
type Circuit struct {
	Name        []string          `json:"name"`
	Devices     json.RawMessage   `json:"devices"`
	Nets        []int             `json:"nets"`
	BadNets     []json.RawMessage `json:"badnets"`
	BadElements []json.RawMessage `json:"badelements"`
	Properties  []json.RawMessage `json:"properties"`
	Pins        json.RawMessage   `json:"pins"`
}

// Match reports whether the pair compared clean: equal net counts and no
// unmatched nets, devices or properties.
func (c Circuit) Match() bool {
	if len(c.Nets) == 2 && c.Nets[0] != c.Nets[1] {
		return false
	}
	return len(c.BadNets) == 0 && len(c.BadElements) == 0 && len(c.Properties) == 0
}

// Match reports whether every compared pair matched.
func (r Report) Match() bool {
	for _, c := range r {
		if !c.Match() {
			return false
		}
	}
	return len(r) > 0
}

// Mismatched returns the names of the pairs that did not match.
func (r Report) Mismatched() []string {
	var out []string
	for _, c := range r {
		if !c.Match() {
			out = append(out, strings.Join(c.Name, " vs "))
		}
	}
	return out
}

// ReportJSONPath is where netgen writes the JSON summary for a text report.
func ReportJSONPath(report string) string {
	return strings.TrimSuffix(report, ".out") + ".json"
}

// ReadReport loads a netgen JSON summary.
func ReadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netgen: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("netgen: decode %s: %w", path, err)
	}
	return r, nil
}
