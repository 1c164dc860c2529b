package sim

// LocationKind distinguishes the three location variants.
type LocationKind string

const (
	KindInputPoint  LocationKind = "input_point"
	KindPile        LocationKind = "pile"
	KindOutputPoint LocationKind = "output_point"
)

// PileKind tags a pile as part of the storage area or the retrieval area.
type PileKind string

const (
	PileStorage   PileKind = "storage"
	PileRetrieval PileKind = "retrieval"
)

// Position is a continuous yard coordinate: X runs along the bays, Y across the rows.
type Position struct {
	X float64
	Y float64
}

// Location owns an ordered stack of plates at a fixed place in the yard.
type Location interface {
	ID() string
	Kind() LocationKind
	// TargetFrom returns the coordinate a crane currently at from must reach to
	// service this location. Input and output points span every row, so only
	// the bay is fixed for them.
	TargetFrom(from Position) Position
	// GetPlate removes and returns the top plate. Panics on an empty stack.
	GetPlate() Plate
	// PutPlate pushes a plate on top of the stack.
	PutPlate(p Plate)
	Top() (Plate, bool)
	Len() int
	// Plates returns a bottom-first copy of the stack.
	Plates() []Plate
}

// plateStack is the LIFO store shared by all location variants.
type plateStack struct {
	owner  string
	plates []Plate
	ids    map[int]bool
}

func newPlateStack(owner string) plateStack {
	return plateStack{owner: owner, ids: make(map[int]bool)}
}

func (s *plateStack) push(p Plate) {
	if s.ids[p.ID] {
		invariant("PutPlate", "location %s already holds plate %d (%s)", s.owner, p.ID, p.Name)
	}
	s.ids[p.ID] = true
	s.plates = append(s.plates, p)
}

func (s *plateStack) pop() Plate {
	n := len(s.plates)
	if n == 0 {
		invariant("GetPlate", "location %s is empty", s.owner)
	}
	p := s.plates[n-1]
	s.plates = s.plates[:n-1]
	delete(s.ids, p.ID)
	return p
}

func (s *plateStack) Top() (Plate, bool) {
	if len(s.plates) == 0 {
		return Plate{}, false
	}
	return s.plates[len(s.plates)-1], true
}

func (s *plateStack) Len() int { return len(s.plates) }

func (s *plateStack) Plates() []Plate {
	out := make([]Plate, len(s.plates))
	copy(out, s.plates)
	return out
}

// InputPoint is where inbound plates wait to be stored. It spans all rows at one bay.
type InputPoint struct {
	plateStack
	id  string
	bay float64
}

func NewInputPoint(id string, bay float64) *InputPoint {
	return &InputPoint{plateStack: newPlateStack(id), id: id, bay: bay}
}

func (ip *InputPoint) ID() string                        { return ip.id }
func (ip *InputPoint) Kind() LocationKind                { return KindInputPoint }
func (ip *InputPoint) TargetFrom(from Position) Position { return Position{X: ip.bay, Y: from.Y} }
func (ip *InputPoint) GetPlate() Plate                   { return ip.pop() }
func (ip *InputPoint) PutPlate(p Plate)                  { ip.push(p) }

// HasWork reports whether any plate still waits at the input point.
func (ip *InputPoint) HasWork() bool { return ip.Len() > 0 }

// Pile is a LIFO stack of plates at a fixed (bay, row).
type Pile struct {
	plateStack
	id   string
	pos  Position
	kind PileKind
}

func NewPile(id string, bay, row float64, kind PileKind) *Pile {
	return &Pile{plateStack: newPlateStack(id), id: id, pos: Position{X: bay, Y: row}, kind: kind}
}

func (p *Pile) ID() string                     { return p.id }
func (p *Pile) Kind() LocationKind             { return KindPile }
func (p *Pile) PileKind() PileKind             { return p.kind }
func (p *Pile) Position() Position             { return p.pos }
func (p *Pile) TargetFrom(_ Position) Position { return p.pos }
func (p *Pile) GetPlate() Plate                { return p.pop() }
func (p *Pile) PutPlate(pl Plate)              { p.push(pl) }

// HasWork reports whether the top plate still has to move elsewhere. Plates
// delivered to this pile never make it ready again.
func (p *Pile) HasWork() bool {
	top, ok := p.Top()
	return ok && top.Destination != p.id
}

// OutputPoint is a conveyor that receives retrieved plates. Demand arrives as a
// geometric process; each arrival stays pending until a crane takes the job.
type OutputPoint struct {
	plateStack
	id       string
	bay      float64
	rate     float64
	sampler  ArrivalSampler
	demand   bool
	arrivals []float64
}

func NewOutputPoint(id string, bay, rate float64) *OutputPoint {
	return &OutputPoint{
		plateStack: newPlateStack(id),
		id:         id,
		bay:        bay,
		rate:       rate,
		sampler:    NewGeometricSampler(rate),
	}
}

func (op *OutputPoint) ID() string                        { return op.id }
func (op *OutputPoint) Kind() LocationKind                { return KindOutputPoint }
func (op *OutputPoint) TargetFrom(from Position) Position { return Position{X: op.bay, Y: from.Y} }
func (op *OutputPoint) PutPlate(p Plate)                  { op.push(p) }

// GetPlate always panics: retrieved plates leave the yard.
func (op *OutputPoint) GetPlate() Plate {
	invariant("GetPlate", "output point %s does not release plates", op.id)
	return Plate{}
}

// Demand reports whether a retrieval request is waiting to be serviced.
func (op *OutputPoint) Demand() bool { return op.demand }

// Arrivals returns the simulated times of every demand arrival so far.
func (op *OutputPoint) Arrivals() []float64 {
	out := make([]float64, len(op.arrivals))
	copy(out, op.arrivals)
	return out
}
