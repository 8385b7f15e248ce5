package park

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidCapacity = errors.New("invalid park capacity configuration")
)

// Park holds the static per-park configuration every capacity slot of that
// park inherits.
type Park struct {
	id             uuid.UUID
	name           string
	basePriceCents int64
	maxCapacity    int
	reservedFloor  int
	available      bool
}

func NewPark(id uuid.UUID, name string, basePriceCents int64, maxCapacity, reservedFloor int, available bool) (*Park, error) {
	if maxCapacity <= 0 || reservedFloor < 0 || reservedFloor > maxCapacity {
		return nil, ErrInvalidCapacity
	}
	return &Park{
		id:             id,
		name:           name,
		basePriceCents: basePriceCents,
		maxCapacity:    maxCapacity,
		reservedFloor:  reservedFloor,
		available:      available,
	}, nil
}

func (p *Park) ID() uuid.UUID         { return p.id }
func (p *Park) Name() string          { return p.name }
func (p *Park) BasePriceCents() int64 { return p.basePriceCents }
func (p *Park) MaxCapacity() int      { return p.maxCapacity }
func (p *Park) ReservedFloor() int    { return p.reservedFloor }
func (p *Park) Available() bool       { return p.available }
