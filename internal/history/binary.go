package history

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/maseology/mmio"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/remc/internal/model"
)

type Command int8

const (
	CommandNew    Command = 1
	CommandUpdate Command = 2
	CommandRemove Command = 3
)

func (c Command) String() string {
	switch c {
	case CommandNew:
		return "new"
	case CommandUpdate:
		return "update"
	case CommandRemove:
		return "remove"
	}
	return fmt.Sprintf("Command(%d)", int8(c))
}

// BinaryRecorder writes particle events as little-endian records:
//
//	int8 command, int32 count (always 1), int32 ID,
//	new: int8 charge, float64 creation time,
//	update and remove: float64 timestep,
//	then 3 float64 position and 3 float64 momentum.
//
// IDs above math.MaxInt32 do not fit the record and latch ErrIDRange.
// The first write error is kept and every later event is dropped.
type BinaryRecorder struct {
	w      *bufio.Writer
	closer io.Closer
	err    error
}

func NewBinaryRecorder(w io.Writer) *BinaryRecorder {
	return &BinaryRecorder{w: bufio.NewWriter(w)}
}

func CreateBinaryRecorder(path string) (*BinaryRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create history file: %w", err)
	}
	r := NewBinaryRecorder(file)
	r.closer = file
	return r, nil
}

func (r *BinaryRecorder) write(values ...any) {
	for _, v := range values {
		if r.err != nil {
			return
		}
		r.err = binary.Write(r.w, binary.LittleEndian, v)
	}
}

func (r *BinaryRecorder) id(p *model.Particle) int32 {
	if p.ID > math.MaxInt32 && r.err == nil {
		r.err = fmt.Errorf("%w: %d", ErrIDRange, p.ID)
	}
	return int32(p.ID)
}

func (r *BinaryRecorder) state(p *model.Particle) {
	r.write(
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Momentum.X, p.Momentum.Y, p.Momentum.Z,
	)
}

func (r *BinaryRecorder) NewParticle(p *model.Particle) {
	r.write(CommandNew, int32(1), r.id(p), int8(p.Charge), p.CurrentTime)
	r.state(p)
}

func (r *BinaryRecorder) UpdateParticle(p *model.Particle) {
	r.write(CommandUpdate, int32(1), r.id(p), p.Timestep)
	r.state(p)
}

// RemoveParticle keeps the record layout of an update; the reason is not stored.
func (r *BinaryRecorder) RemoveParticle(_ model.RemovalReason, p *model.Particle) {
	r.write(CommandRemove, int32(1), r.id(p), p.Timestep)
	r.state(p)
}

func (r *BinaryRecorder) Err() error {
	return r.err
}

func (r *BinaryRecorder) Close() error {
	err := r.err
	if flushErr := r.w.Flush(); err == nil {
		err = flushErr
	}
	if r.closer != nil {
		if closeErr := r.closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// Event is one decoded history record. Time is the creation time for
// CommandNew and the step length otherwise.
type Event struct {
	Command  Command
	ID       int32
	Charge   int8
	Time     float64
	Position r3.Vec
	Momentum r3.Vec
}

var (
	ErrBadRecord = errors.New("malformed history record")
	ErrIDRange   = errors.New("particle ID does not fit the int32 record field")
)

const (
	newRecordSize   = 4 + 1 + 8 + 6*8 // ID, charge, creation time, state
	stepRecordSize  = 4 + 8 + 6*8     // ID, timestep, state
	recordHeaderLen = 1 + 4           // command, count
)

// ReadEventsFile decodes a history file written by BinaryRecorder.
func ReadEventsFile(path string) ([]Event, error) {
	if _, ok := mmio.FileExists(path); !ok {
		return nil, fmt.Errorf("history file %s not found", path)
	}
	return decodeEvents(mmio.OpenBinary(path))
}

func decodeEvents(b *bytes.Reader) (events []Event, err error) {
	for b.Len() > 0 {
		if b.Len() < recordHeaderLen {
			return events, fmt.Errorf("%w: truncated header", ErrBadRecord)
		}
		command := Command(mmio.ReadInt8(b))
		size := stepRecordSize
		switch command {
		case CommandNew:
			size = newRecordSize
		case CommandUpdate, CommandRemove:
		default:
			return events, fmt.Errorf("%w: unknown command %d", ErrBadRecord, command)
		}
		count := int(mmio.ReadInt32(b))
		if count < 0 || b.Len() < count*size {
			return events, fmt.Errorf("%w: %d records of %s do not fit %d bytes", ErrBadRecord, count, command, b.Len())
		}
		for range count {
			e := Event{Command: command, ID: mmio.ReadInt32(b)}
			if command == CommandNew {
				e.Charge = mmio.ReadInt8(b)
			}
			e.Time = mmio.ReadFloat64(b)
			e.Position = r3.Vec{X: mmio.ReadFloat64(b), Y: mmio.ReadFloat64(b), Z: mmio.ReadFloat64(b)}
			e.Momentum = r3.Vec{X: mmio.ReadFloat64(b), Y: mmio.ReadFloat64(b), Z: mmio.ReadFloat64(b)}
			events = append(events, e)
		}
	}
	return events, nil
}
