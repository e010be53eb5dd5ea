package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocontact/mortar"
	"github.com/notargets/gocontact/types"
	"github.com/notargets/gocontact/utils"
)

// Parameters obtained from the YAML input file. Keys are the snake case json
// tags, which is what configuration errors report.
type ContactParameters struct {
	Title           string `json:"title"`
	Model           string `json:"model"`
	Formulation     string `json:"formulation"`
	NCPFunction     string `json:"ncp_function"`
	CoordType       string `json:"coord_type"`
	Basis           string `json:"basis"`
	QuadratureOrder int    `json:"quadrature_order"`
	NumRanks        int    `json:"num_ranks"`

	// Two blocks, the upper one pressed onto the lower one
	LowerElements [2]int  `json:"lower_elements"`
	UpperElements [2]int  `json:"upper_elements"`
	Width         float64 `json:"width"`
	InitialGap    float64 `json:"initial_gap"`

	FoundationStiffness float64 `json:"foundation_stiffness"`
	EdgeStiffness       float64 `json:"edge_stiffness"`
	Indentation         float64 `json:"indentation"`
	Slide               float64 `json:"slide"`
	FinalTime           float64 `json:"final_time"`
	Dt                  float64 `json:"dt"`
	MinDt               float64 `json:"dtmin"`

	C                   float64 `json:"c"`
	NormalizeC          bool    `json:"normalize_c"`
	CTangential         float64 `json:"c_t"`
	FrictionCoefficient float64 `json:"friction_coefficient"`
	FrictionEpsilon     float64 `json:"epsilon"`

	Penalty                  float64 `json:"penalty"`
	PenaltyFriction          float64 `json:"penalty_friction"`
	NormalizePenalty         bool    `json:"normalize_penalty"`
	PenaltyMultiplier        float64 `json:"penalty_multiplier"`
	MaxPenaltyMultiplier     float64 `json:"max_penalty_multiplier"`
	PenetrationTolerance     float64 `json:"penetration_tolerance"`
	SlipTolerance            float64 `json:"slip_tolerance"`
	FrictionalForceTolerance float64 `json:"frictional_force_tolerance"`
	MaxALIterations          int     `json:"al_max_its"`

	Dynamic          bool    `json:"dynamic"`
	NewmarkBeta      float64 `json:"newmark_beta"`
	NewmarkGamma     float64 `json:"newmark_gamma"`
	CaptureTolerance float64 `json:"capture_tolerance"`

	NormalStrength    float64 `json:"normal_strength"`
	ShearStrength     float64 `json:"shear_strength"`
	GIc               float64 `json:"GI_c"`
	GIIc              float64 `json:"GII_c"`
	CohesiveStiffness float64 `json:"penalty_stiffness"`
	BKExponent        float64 `json:"power_law_parameter"`
	Viscosity         float64 `json:"viscosity"`

	NewtonTolerance     float64 `json:"nl_abs_tol"`
	MaxNewtonIterations int     `json:"nl_max_its"`

	LeafSize                   int     `json:"leaf_size"`
	AutomaticPairingMethod     string  `json:"automatic_pairing_method"`
	AutomaticPairingDistance   float64 `json:"automatic_pairing_distance"`
	AutomaticPairingBoundaries []int   `json:"automatic_pairing_boundaries"`

	Checkpoint string `json:"checkpoint"`
	Restart    string `json:"restart"`
}

func (ip *ContactParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// SetDefaults fills the numerically inert parameters only. Physical
// parameters stay zero and are rejected by Validate when they are needed.
func (ip *ContactParameters) SetDefaults() {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	def(&ip.Model, "frictionless")
	def(&ip.Formulation, "lm")
	def(&ip.NCPFunction, "min")
	def(&ip.CoordType, "xyz")
	def(&ip.Basis, "standard")
	def(&ip.AutomaticPairingMethod, "node")
	if ip.QuadratureOrder == 0 {
		ip.QuadratureOrder = 2
	}
	if ip.NumRanks == 0 {
		ip.NumRanks = 1
	}
	if ip.MinDt == 0 {
		ip.MinDt = ip.Dt / 64
	}
	if ip.FrictionEpsilon == 0 {
		ip.FrictionEpsilon = 1e-7
	}
	if ip.NewtonTolerance == 0 {
		ip.NewtonTolerance = 1e-10
	}
	if ip.MaxNewtonIterations == 0 {
		ip.MaxNewtonIterations = 25
	}
	if ip.MaxALIterations == 0 {
		ip.MaxALIterations = 20
	}
	if ip.LeafSize == 0 {
		ip.LeafSize = 10
	}
	if ip.PenaltyMultiplier == 0 {
		ip.PenaltyMultiplier = 1
	}
	if ip.BKExponent == 0 {
		ip.BKExponent = 2
	}
	if ip.Dynamic && ip.NewmarkBeta == 0 && ip.NewmarkGamma == 0 {
		ip.NewmarkBeta, ip.NewmarkGamma = 0.25, 0.5
	}
}

func (ip *ContactParameters) ContactModel() (types.ContactModel, error) {
	cm, ok := types.LookupName(types.ContactModelNameMap, ip.Model)
	if !ok {
		return cm, utils.NewConfigError("model", "unknown contact model %q, have %s",
			ip.Model, names(types.ContactModelNameMap))
	}
	return cm, nil
}

func (ip *ContactParameters) ContactFormulation() (types.Formulation, error) {
	f, ok := types.LookupName(types.FormulationNameMap, ip.Formulation)
	if !ok {
		return f, utils.NewConfigError("formulation", "unknown formulation %q, have %s",
			ip.Formulation, names(types.FormulationNameMap))
	}
	return f, nil
}

func (ip *ContactParameters) NCP() (types.NCPType, error) {
	n, ok := types.LookupName(types.NCPNameMap, ip.NCPFunction)
	if !ok {
		return n, utils.NewConfigError("ncp_function", "unknown complementarity function %q, have %s",
			ip.NCPFunction, names(types.NCPNameMap))
	}
	return n, nil
}

func (ip *ContactParameters) Coord() (types.CoordSystem, error) {
	cs, ok := types.LookupName(types.CoordSystemNameMap, ip.CoordType)
	if !ok {
		return cs, utils.NewConfigError("coord_type", "unknown coordinate system %q, have %s",
			ip.CoordType, names(types.CoordSystemNameMap))
	}
	return cs, nil
}

func (ip *ContactParameters) TestBasis() (mortar.Basis, error) {
	b, ok := types.LookupName(mortar.BasisNameMap, ip.Basis)
	if !ok {
		return b, utils.NewConfigError("basis", "unknown test function basis %q, have %s",
			ip.Basis, names(mortar.BasisNameMap))
	}
	return b, nil
}

func (ip *ContactParameters) PairingMethod() (types.PairingMethod, error) {
	pm, ok := types.LookupName(types.PairingMethodNameMap, ip.AutomaticPairingMethod)
	if !ok {
		return pm, utils.NewConfigError("automatic_pairing_method", "unknown pairing method %q, have %s",
			ip.AutomaticPairingMethod, names(types.PairingMethodNameMap))
	}
	return pm, nil
}

// Validate rejects missing and contradictory parameters before any solve.
// The first problem found is returned.
func (ip *ContactParameters) Validate() (err error) {
	var (
		cm types.ContactModel
		f  types.Formulation
	)
	if cm, err = ip.ContactModel(); err != nil {
		return
	}
	if f, err = ip.ContactFormulation(); err != nil {
		return
	}
	if _, err = ip.NCP(); err != nil {
		return
	}
	if _, err = ip.Coord(); err != nil {
		return
	}
	if _, err = ip.TestBasis(); err != nil {
		return
	}
	if _, err = ip.PairingMethod(); err != nil {
		return
	}
	for _, ne := range []struct {
		name string
		n    [2]int
	}{{"lower_elements", ip.LowerElements}, {"upper_elements", ip.UpperElements}} {
		if ne.n[0] < 1 || ne.n[1] < 1 {
			return utils.NewConfigError(ne.name, "need at least one element in each direction, have %v", ne.n)
		}
	}
	lmOnly := f == types.LagrangeMultiplier
	switch {
	case ip.NumRanks < 1:
		return utils.NewConfigError("num_ranks", "must be at least 1, have %d", ip.NumRanks)
	case ip.QuadratureOrder < 1:
		return utils.NewConfigError("quadrature_order", "must be at least 1, have %d", ip.QuadratureOrder)
	case ip.Width <= 0:
		return utils.NewConfigError("width", "must be positive, have %g", ip.Width)
	case ip.FoundationStiffness <= 0:
		return utils.NewConfigError("foundation_stiffness", "must be positive, have %g", ip.FoundationStiffness)
	case ip.EdgeStiffness < 0:
		return utils.NewConfigError("edge_stiffness", "must not be negative, have %g", ip.EdgeStiffness)
	case ip.Dt <= 0:
		return utils.NewConfigError("dt", "must be positive, have %g", ip.Dt)
	case ip.FinalTime < ip.Dt:
		return utils.NewConfigError("final_time", "%g is shorter than one step of %g", ip.FinalTime, ip.Dt)
	case ip.MinDt <= 0 || ip.MinDt > ip.Dt:
		return utils.NewConfigError("dtmin", "must be in (0, dt], have %g", ip.MinDt)
	case cm == types.Glued && !lmOnly:
		return utils.NewConfigError("formulation", "glued contact needs Lagrange multipliers, have %s", f)
	case cm == types.Cohesive && ip.InitialGap != 0:
		return utils.NewConfigError("initial_gap", "a cohesive interface starts closed, have %g", ip.InitialGap)
	case ip.Dynamic && !lmOnly:
		return utils.NewConfigError("dynamic", "the gap rate condition needs formulation lm, have %s", f)
	case ip.Dynamic && (ip.NewmarkBeta <= 0 || ip.NewmarkGamma <= 0):
		return utils.NewConfigError("newmark_beta", "beta and gamma must be positive, have %g and %g",
			ip.NewmarkBeta, ip.NewmarkGamma)
	case f != types.AugmentedLagrange && (ip.PenetrationTolerance != 0 || ip.PenaltyMultiplier > 1 ||
		ip.MaxPenaltyMultiplier != 0 || ip.SlipTolerance != 0 || ip.FrictionalForceTolerance != 0):
		return utils.NewConfigError("penetration_tolerance",
			"augmented Lagrange parameters are only used with formulation augmented_lagrange, have %s", f)
	}
	if cm == types.Cohesive {
		return ip.validateCohesive()
	}
	if lmOnly {
		if ip.C <= 0 {
			return utils.NewConfigError("c", "formulation %s needs a positive c, have %g", f, ip.C)
		}
		if cm == types.Coulomb && ip.CTangential <= 0 {
			return utils.NewConfigError("c_t", "frictional Lagrange multipliers need a positive c_t, have %g",
				ip.CTangential)
		}
	} else if ip.Penalty <= 0 {
		return utils.NewConfigError("penalty", "formulation %s needs a positive penalty, have %g", f, ip.Penalty)
	}
	if cm == types.Coulomb && ip.FrictionCoefficient <= 0 {
		return utils.NewConfigError("friction_coefficient", "coulomb contact needs a positive coefficient, have %g",
			ip.FrictionCoefficient)
	}
	if cm != types.Coulomb && (ip.FrictionCoefficient != 0 || ip.PenaltyFriction != 0) {
		return utils.NewConfigError("friction_coefficient", "friction parameters given for %s contact", cm)
	}
	if f == types.AugmentedLagrange {
		switch {
		case ip.PenetrationTolerance <= 0:
			return utils.NewConfigError("penetration_tolerance", "augmented Lagrange needs a positive tolerance, have %g",
				ip.PenetrationTolerance)
		case ip.PenaltyMultiplier < 1:
			return utils.NewConfigError("penalty_multiplier", "must be at least 1, have %g", ip.PenaltyMultiplier)
		case ip.MaxPenaltyMultiplier != 0 && ip.MaxPenaltyMultiplier < 1:
			return utils.NewConfigError("max_penalty_multiplier", "must be at least 1, have %g",
				ip.MaxPenaltyMultiplier)
		}
	}
	return
}

func (ip *ContactParameters) validateCohesive() error {
	switch {
	case ip.CohesiveStiffness <= 0:
		return utils.NewConfigError("penalty_stiffness", "must be positive, have %g", ip.CohesiveStiffness)
	case ip.NormalStrength <= 0:
		return utils.NewConfigError("normal_strength", "must be positive, have %g", ip.NormalStrength)
	case ip.ShearStrength <= 0:
		return utils.NewConfigError("shear_strength", "must be positive, have %g", ip.ShearStrength)
	case ip.GIc <= 0:
		return utils.NewConfigError("GI_c", "must be positive, have %g", ip.GIc)
	case ip.GIIc <= 0:
		return utils.NewConfigError("GII_c", "must be positive, have %g", ip.GIIc)
	case ip.Viscosity < 0:
		return utils.NewConfigError("viscosity", "must not be negative, have %g", ip.Viscosity)
	}
	return nil
}

func (ip *ContactParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Contact Model\n", ip.Model)
	fmt.Printf("[%s]\t\t\t= Formulation\n", ip.Formulation)
	fmt.Printf("[%s]\t\t\t= NCP Function\n", ip.NCPFunction)
	fmt.Printf("[%s]\t\t\t= Coordinate System\n", ip.CoordType)
	fmt.Printf("[%s]\t\t= Test Function Basis\n", ip.Basis)
	fmt.Printf("[%d]\t\t\t\t= Quadrature Order\n", ip.QuadratureOrder)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.NumRanks)
	fmt.Printf("%v x %v\t\t= Lower x Upper Elements\n", ip.LowerElements, ip.UpperElements)
	fmt.Printf("%8.5f\t\t= Initial Gap\n", ip.InitialGap)
	fmt.Printf("%8.5f\t\t= Indentation\n", ip.Indentation)
	fmt.Printf("%8.5f\t\t= Slide\n", ip.Slide)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.5f\t\t= Dt\n", ip.Dt)
	fmt.Printf("%8.5g\t\t= Foundation Stiffness\n", ip.FoundationStiffness)
	fmt.Printf("%8.5g\t\t= Edge Stiffness\n", ip.EdgeStiffness)
	fmt.Printf("%8.5g\t\t= c\n", ip.C)
	fmt.Printf("%8.5g\t\t= c_t\n", ip.CTangential)
	fmt.Printf("%8.5g\t\t= Friction Coefficient\n", ip.FrictionCoefficient)
	fmt.Printf("%8.5g\t\t= Penalty\n", ip.Penalty)
	if ip.Dynamic {
		fmt.Printf("%8.5f, %8.5f\t= Newmark Beta, Gamma\n", ip.NewmarkBeta, ip.NewmarkGamma)
	}
	if len(ip.AutomaticPairingBoundaries) != 0 {
		fmt.Printf("%v\t\t= Automatic Pairing Boundaries\n", ip.AutomaticPairingBoundaries)
	}
}

// names lists the accepted tokens of a name map
func names[T any](nameMap map[string]T) (list []string) {
	for k := range nameMap {
		list = append(list, k)
	}
	sort.Strings(list)
	return
}

// NameRegistry hands out unique object names, one counter per prefix
type NameRegistry struct {
	counts map[string]int
}

func (nr *NameRegistry) Next(prefix string) (name string) {
	if nr.counts == nil {
		nr.counts = make(map[string]int)
	}
	name = fmt.Sprintf("%s_%d", prefix, nr.counts[prefix])
	nr.counts[prefix]++
	return
}
