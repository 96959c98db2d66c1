// Package slipio reads engine inputs from YAML, JSON and CSV files and
// writes results back out.
package slipio

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
)

// decode parses YAML and falls back to JSON.
func decode(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		if jerr := json.Unmarshal(data, v); jerr != nil {
			return fmt.Errorf("tried YAML and JSON: %w", errors.Join(err, jerr))
		}
	}
	return nil
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := decode(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ParseLegs reads a leg list, either bare or under a "legs" key.
// American quotes are converted to decimal odds.
func ParseLegs(data []byte) ([]odds.Leg, error) {
	var legs []odds.Leg
	if err := decode(data, &legs); err != nil {
		var doc struct {
			Legs []odds.Leg `json:"legs" yaml:"legs"`
		}
		if err2 := decode(data, &doc); err2 != nil {
			return nil, err
		}
		legs = doc.Legs
	}
	for i := range legs {
		if err := legs[i].Normalize(); err != nil {
			return nil, err
		}
	}
	return legs, nil
}

func LoadLegs(path string) ([]odds.Leg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	legs, err := ParseLegs(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return legs, nil
}

// ParseSlips reads a slip list, either bare or under a "slips" key.
func ParseSlips(data []byte) ([]risk.Slip, error) {
	var slips []risk.Slip
	if err := decode(data, &slips); err != nil {
		var doc struct {
			Slips []risk.Slip `json:"slips" yaml:"slips"`
		}
		if err2 := decode(data, &doc); err2 != nil {
			return nil, err
		}
		slips = doc.Slips
	}
	return slips, nil
}

func LoadSlips(path string) ([]risk.Slip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slips, err := ParseSlips(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return slips, nil
}

// LoadCorr reads a "a|b": rho map into a table. Keys that are not pairs
// are returned in bad and left out of the table.
func LoadCorr(path string) (*corr.Table, []string, error) {
	raw := map[string]float64{}
	if err := readFile(path, &raw); err != nil {
		return nil, nil, err
	}
	t, bad := corr.FromMap(raw)
	return t, bad, nil
}

// ReadHits parses a date,leg_key,hit CSV. A header row is optional; hit
// accepts 1/0 and true/false.
func ReadHits(r io.Reader) ([]corr.HitRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var out []corr.HitRecord
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(rec[0], "date") {
			continue
		}
		hit, err := strconv.ParseBool(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: hit %q: %w", line, rec[2], err)
		}
		out = append(out, corr.HitRecord{Date: rec[0], Leg: rec[1], Hit: hit})
	}
	return out, nil
}

func LoadHits(path string) ([]corr.HitRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hits, err := ReadHits(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return hits, nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SaveFile writes v as YAML for .yaml/.yml paths and JSON otherwise.
func SaveFile(path string, v any) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}
