package provider

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// Hourly is one row of boundary conditions: outdoor temperature (°C) and the
// internal plus solar gains split over the three nodes (W).
type Hourly struct {
	Hour   int     `csv:"hour"`
	ThetaE float64 `csv:"theta_e"`
	PhiM   float64 `csv:"phi_m"`
	PhiSt  float64 `csv:"phi_st"`
	PhiIa  float64 `csv:"phi_ia"`
}

func ReadHourly(r io.Reader) ([]Hourly, error) {
	var rows []Hourly
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse hourly csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return rows, nil
}

func LoadHourly(path string) ([]Hourly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hourly csv: %w", err)
	}
	defer f.Close()

	var rows []Hourly
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse hourly csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return rows, nil
}
