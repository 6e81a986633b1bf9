package history

import (
	"fmt"
	"io"
	"os"
	"slices"

	geojson "github.com/paulmach/go.geojson"

	"github.com/wildstyl3r/remc/internal/model"
)

type track struct {
	id      uint64
	charge  int
	start   float64
	end     float64
	removed string
	points  [][]float64
	energy  []float64
}

// TrackRecorder collects particle positions and writes them as a GeoJSON
// FeatureCollection on Close: a LineString per particle, or a Point when the
// particle never moved. Coordinates are multiplied by Scale.
type TrackRecorder struct {
	Scale float64

	w      io.Writer
	closer io.Closer
	tracks map[uint64]*track
	err    error
}

func NewTrackRecorder(w io.Writer, scale float64) *TrackRecorder {
	return &TrackRecorder{Scale: scale, w: w, tracks: map[uint64]*track{}}
}

func CreateTrackRecorder(path string, scale float64) (*TrackRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create track file: %w", err)
	}
	r := NewTrackRecorder(file, scale)
	r.closer = file
	return r, nil
}

func (r *TrackRecorder) add(t *track, p *model.Particle) {
	pos := p.Position
	t.points = append(t.points, []float64{pos.X * r.Scale, pos.Y * r.Scale, pos.Z * r.Scale})
	t.energy = append(t.energy, p.Energy)
	t.end = p.CurrentTime
}

func (r *TrackRecorder) NewParticle(p *model.Particle) {
	t := &track{id: p.ID, charge: p.Charge, start: p.CurrentTime}
	r.tracks[p.ID] = t
	r.add(t, p)
}

func (r *TrackRecorder) UpdateParticle(p *model.Particle) {
	if t, ok := r.tracks[p.ID]; ok {
		r.add(t, p)
	}
}

func (r *TrackRecorder) RemoveParticle(reason model.RemovalReason, p *model.Particle) {
	if t, ok := r.tracks[p.ID]; ok {
		r.add(t, p)
		t.removed = reason.String()
	}
}

func (r *TrackRecorder) Err() error {
	return r.err
}

func (r *TrackRecorder) Close() error {
	fc := geojson.NewFeatureCollection()
	ids := make([]uint64, 0, len(r.tracks))
	for id := range r.tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		t := r.tracks[id]
		var f *geojson.Feature
		if len(t.points) > 1 {
			f = geojson.NewLineStringFeature(t.points)
		} else {
			f = geojson.NewPointFeature(t.points[0])
		}
		f.SetProperty("pid", t.id)
		f.SetProperty("charge", t.charge)
		f.SetProperty("start", t.start)
		f.SetProperty("end", t.end)
		f.SetProperty("energy", t.energy)
		if t.removed != "" {
			f.SetProperty("removed", t.removed)
		}
		fc.AddFeature(f)
	}

	rawJSON, err := fc.MarshalJSON()
	if err == nil {
		_, err = r.w.Write(append(rawJSON, '\n'))
	}
	if r.err == nil {
		r.err = err
	}
	if r.closer != nil {
		if closeErr := r.closer.Close(); r.err == nil {
			r.err = closeErr
		}
	}
	return r.err
}
