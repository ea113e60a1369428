package ephemeris

// BodyCode identifies a body in the oracle's catalog.
type BodyCode int

// Catalog codes understood by an Oracle.
const (
	NoCode BodyCode = iota - 1
	CodeSun
	CodeMoon
	CodeMercury
	CodeVenus
	CodeMars
	CodeJupiter
	CodeSaturn
	CodeUranus
	CodeNeptune
	CodePluto
	CodeTrueNode
	CodeChiron
	CodeCeres
	CodePallas
	CodeJuno
	CodeVesta
)

var codeNames = map[BodyCode]string{
	CodeSun:      "sun",
	CodeMoon:     "moon",
	CodeMercury:  "mercury",
	CodeVenus:    "venus",
	CodeMars:     "mars",
	CodeJupiter:  "jupiter",
	CodeSaturn:   "saturn",
	CodeUranus:   "uranus",
	CodeNeptune:  "neptune",
	CodePluto:    "pluto",
	CodeTrueNode: "true_node",
	CodeChiron:   "chiron",
	CodeCeres:    "ceres",
	CodePallas:   "pallas",
	CodeJuno:     "juno",
	CodeVesta:    "vesta",
}

func (c BodyCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "none"
}

// Body names referenced outside the catalog table.
const (
	NorthNode = "North Node"
	SouthNode = "South Node"
)

// Body is one entry of the calculator's catalog.
type Body struct {
	Name string
	Code BodyCode // NoCode for derived bodies
	// OppositeOf names the body this one is diametrically opposite to. Only set for derived bodies.
	OppositeOf string
	InHouses   bool
}

// Derived reports whether the body is computed from another body instead of looked up.
func (b Body) Derived() bool {
	return b.Code == NoCode
}

// DefaultBodies returns the fixed 17-body catalog in enumeration order.
// Derived bodies always follow the body they are computed from.
func DefaultBodies() []Body {
	return []Body{
		{Name: "Sun", Code: CodeSun, InHouses: true},
		{Name: "Moon", Code: CodeMoon, InHouses: true},
		{Name: "Mercury", Code: CodeMercury, InHouses: true},
		{Name: "Venus", Code: CodeVenus, InHouses: true},
		{Name: "Mars", Code: CodeMars, InHouses: true},
		{Name: "Jupiter", Code: CodeJupiter, InHouses: true},
		{Name: "Saturn", Code: CodeSaturn, InHouses: true},
		{Name: "Uranus", Code: CodeUranus, InHouses: true},
		{Name: "Neptune", Code: CodeNeptune, InHouses: true},
		{Name: "Pluto", Code: CodePluto, InHouses: true},
		{Name: NorthNode, Code: CodeTrueNode, InHouses: true},
		{Name: SouthNode, Code: NoCode, OppositeOf: NorthNode, InHouses: true},
		{Name: "Chiron", Code: CodeChiron, InHouses: true},
		{Name: "Ceres", Code: CodeCeres, InHouses: true},
		{Name: "Pallas", Code: CodePallas, InHouses: true},
		{Name: "Juno", Code: CodeJuno, InHouses: true},
		{Name: "Vesta", Code: CodeVesta, InHouses: true},
	}
}
