package report

import (
	"io"

	"github.com/gocarina/gocsv"
)

// Recorder collects exit records and population samples during a run.
type Recorder struct {
	Exits      []ExitRecord
	Population []PopulationSample
}

// NewRecorder creates a Recorder ready for recording.
func NewRecorder() *Recorder {
	return &Recorder{
		Exits:      make([]ExitRecord, 0),
		Population: make([]PopulationSample, 0),
	}
}

// RecordExit appends one exit record.
func (r *Recorder) RecordExit(rec ExitRecord) {
	r.Exits = append(r.Exits, rec)
}

// RecordPopulation appends one population sample.
func (r *Recorder) RecordPopulation(s PopulationSample) {
	r.Population = append(r.Population, s)
}

// WriteExits serializes the exit records as CSV with a header row.
func (r *Recorder) WriteExits(w io.Writer) error {
	return gocsv.Marshal(r.Exits, w)
}

// WritePopulation serializes the population time series as CSV.
func (r *Recorder) WritePopulation(w io.Writer) error {
	return gocsv.Marshal(r.Population, w)
}

// Summary aggregates exit records by reason.
type Summary struct {
	Total     int
	ByReason  map[ExitReason]int
	Divisions int
}

// Summarize tallies the recorded exits.
func (r *Recorder) Summarize() Summary {
	s := Summary{
		Total:    len(r.Exits),
		ByReason: make(map[ExitReason]int),
	}
	for i := range r.Exits {
		s.ByReason[r.Exits[i].ExitReason]++
		s.Divisions += r.Exits[i].Divisions
	}
	return s
}
