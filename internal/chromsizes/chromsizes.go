// Package chromsizes provides chromosome size tables for reference assemblies.
package chromsizes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Chrom is one (name, value) pair of a chromosome size table. Value is the
// chromosome length, or its offset after Cumulative.
type Chrom struct {
	Name  string
	Value int64
}

// MarshalJSON encodes the pair as a two-element array: ["chr1", 249250621].
func (c Chrom) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Name, c.Value})
}

// UnmarshalJSON decodes a ["name", length] array.
func (c *Chrom) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("chrom entry must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &c.Name); err != nil {
		return fmt.Errorf("chrom name: %w", err)
	}
	if err := json.Unmarshal(raw[1], &c.Value); err != nil {
		return fmt.Errorf("chrom length: %w", err)
	}
	return nil
}

// Default returns the built-in chromosome sizes for an assembly. The returned
// slice is a copy and may be modified by the caller.
func Default(assembly string) ([]Chrom, bool) {
	table, ok := defaults[assembly]
	if !ok {
		return nil, false
	}
	out := make([]Chrom, len(table))
	copy(out, table)
	return out, true
}

// Assemblies returns the ids of all built-in assemblies, sorted.
func Assemblies() []string {
	ids := make([]string, 0, len(defaults))
	for id := range defaults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cumulative maps each chromosome to the sum of the lengths preceding it, so
// that per-chromosome positions can be placed on a single genome axis.
func Cumulative(chroms []Chrom) []Chrom {
	out := make([]Chrom, len(chroms))
	var total int64
	for i, c := range chroms {
		out[i] = Chrom{Name: c.Name, Value: total}
		total += c.Value
	}
	return out
}

// Total returns the summed length of all chromosomes.
func Total(chroms []Chrom) int64 {
	var total int64
	for _, c := range chroms {
		total += c.Value
	}
	return total
}

// ParseTSV reads a chrom.sizes file: one "name<TAB>length" per line. Blank
// lines and lines starting with '#' are skipped.
func ParseTSV(r io.Reader) ([]Chrom, error) {
	var (
		out  []Chrom
		seen = make(map[string]struct{})
		line int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected name and length", line)
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || length < 0 {
			return nil, fmt.Errorf("line %d: invalid length %q", line, fields[1])
		}
		if _, dup := seen[fields[0]]; dup {
			return nil, fmt.Errorf("line %d: duplicate chromosome %q", line, fields[0])
		}
		seen[fields[0]] = struct{}{}
		out = append(out, Chrom{Name: fields[0], Value: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chromsizes: %w", err)
	}
	return out, nil
}

// WriteTSV writes "name<TAB>value" lines separated by newlines, without a
// trailing newline.
func WriteTSV(w io.Writer, chroms []Chrom) error {
	lines := make([]string, len(chroms))
	for i, c := range chroms {
		lines[i] = c.Name + "\t" + strconv.FormatInt(c.Value, 10)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}
