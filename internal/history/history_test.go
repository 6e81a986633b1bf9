package history

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/model"
)

func testParticle() *model.Particle {
	return model.NewParticle(-1, 1, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{Z: 1}, 0.5, 0.01)
}

func TestBinaryRecorderLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run0.bin")
	r, err := CreateBinaryRecorder(path)
	require.NoError(t, err)
	p := testParticle()

	r.NewParticle(p)
	p.Position.Z += 1
	p.Timestep = 0.25
	r.UpdateParticle(p)
	r.RemoveParticle(model.RemovedAtHorizon, p)
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// new: 1+4+4+1+8+48, update and remove: 1+4+4+8+48
	assert.Len(t, raw, 66+65+65)
	assert.Equal(t, byte(CommandNew), raw[0])

	events, err := ReadEventsFile(path)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, CommandNew, events[0].Command)
	assert.Equal(t, int32(p.ID), events[0].ID)
	assert.Equal(t, int8(-1), events[0].Charge)
	assert.Equal(t, 0.5, events[0].Time)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, events[0].Position)
	assert.Equal(t, p.Momentum, events[0].Momentum)

	assert.Equal(t, CommandUpdate, events[1].Command)
	assert.Equal(t, 0.25, events[1].Time)
	assert.Equal(t, 4., events[1].Position.Z)
	assert.Equal(t, CommandRemove, events[2].Command)
}

func TestReadEventsFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string][]byte{
		"unknown command":  {7, 1, 0, 0, 0},
		"truncated header": {1, 1},
		"truncated record": {1, 1, 0, 0, 0, 5},
		"negative count":   {2, 0xff, 0xff, 0xff, 0xff},
	} {
		path := filepath.Join(dir, name+".bin")
		require.NoError(t, os.WriteFile(path, content, 0o600))
		_, err := ReadEventsFile(path)
		assert.ErrorIs(t, err, ErrBadRecord, name)
	}

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	events, err := ReadEventsFile(empty)
	assert.NoError(t, err)
	assert.Empty(t, events)

	_, err = ReadEventsFile(filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestBinaryRecorderRejectsWideIDs(t *testing.T) {
	var buf bytes.Buffer
	r := NewBinaryRecorder(&buf)
	p := testParticle()
	p.ID = math.MaxInt32 + 1
	r.NewParticle(p)
	r.UpdateParticle(p)
	assert.ErrorIs(t, r.Err(), ErrIDRange)
	assert.ErrorIs(t, r.Close(), ErrIDRange)
	assert.Zero(t, buf.Len())
}

var errBroken = errors.New("broken")

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errBroken }

func TestBinaryRecorderLatchesErrors(t *testing.T) {
	r := NewBinaryRecorder(brokenWriter{})
	p := testParticle()
	r.NewParticle(p)
	assert.NoError(t, r.Err())

	for range 100 {
		r.UpdateParticle(p)
	}
	assert.ErrorIs(t, r.Err(), errBroken)
	assert.ErrorIs(t, r.Close(), errBroken)
}

func TestTrackRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := NewTrackRecorder(&buf, 2)

	moving := testParticle()
	still := testParticle()
	r.NewParticle(moving)
	r.NewParticle(still)
	moving.Position.X += 1
	moving.CurrentTime = 1
	r.UpdateParticle(moving)
	r.RemoveParticle(model.RemovedLowEnergy, moving)
	require.NoError(t, r.Close())

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	line := fc.Features[0]
	require.True(t, line.Geometry.IsLineString())
	assert.Len(t, line.Geometry.LineString, 3)
	assert.Equal(t, []float64{4, 4, 6}, line.Geometry.LineString[1])
	assert.Equal(t, "low energy", line.Properties["removed"])
	assert.EqualValues(t, moving.ID, line.Properties["pid"])
	assert.EqualValues(t, 1, line.Properties["end"])

	point := fc.Features[1]
	assert.True(t, point.Geometry.IsPoint())
	assert.NotContains(t, point.Properties, "removed")
}

type countingRecorder struct {
	created, updated, removed int
	err                       error
}

func (c *countingRecorder) NewParticle(*model.Particle)    { c.created++ }
func (c *countingRecorder) UpdateParticle(*model.Particle) { c.updated++ }
func (c *countingRecorder) RemoveParticle(model.RemovalReason, *model.Particle) {
	c.removed++
}
func (c *countingRecorder) Err() error   { return c.err }
func (c *countingRecorder) Close() error { return c.err }

func TestMultiAndDiscard(t *testing.T) {
	a, b := &countingRecorder{}, &countingRecorder{err: errBroken}
	m := Multi(a, Discard, b)
	p := testParticle()
	m.NewParticle(p)
	m.UpdateParticle(p)
	m.UpdateParticle(p)
	m.RemoveParticle(model.RemovedAtHorizon, p)

	for _, c := range []*countingRecorder{a, b} {
		assert.Equal(t, 1, c.created)
		assert.Equal(t, 2, c.updated)
		assert.Equal(t, 1, c.removed)
	}
	assert.ErrorIs(t, m.Err(), errBroken)
	assert.ErrorIs(t, m.Close(), errBroken)
	assert.NoError(t, Multi(a, Discard).Close())
}
