package query

// OperatorClass groups operators by the node kind they construct.
type OperatorClass int

const (
	ClassLogical OperatorClass = iota + 1
	ClassUnary
	ClassComparison
	ClassMembership
	ClassCollection
)

// Operator names.
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"
	OpEq  = "eq"
	OpNe  = "ne"
	OpGt  = "gt"
	OpGe  = "ge"
	OpLt  = "lt"
	OpLe  = "le"
	OpIn  = "in"
	OpNin = "nin"
	OpHas = "has"
)

// Function names.
const (
	FuncStartsWith = "startswith"
	FuncEndsWith   = "endswith"
	FuncContains   = "contains"
	FuncSubstring  = "substring"
	FuncToLower    = "tolower"
	FuncToUpper    = "toupper"
	FuncTrim       = "trim"
	FuncLength     = "length"
	FuncIndexOf    = "indexof"
)

// Precedence levels, lowest first.
const (
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4
)

// ArgKind constrains a literal argument of a function.
type ArgKind int

const (
	// ArgAny accepts any non-null literal.
	ArgAny ArgKind = iota
	// ArgNonNegativeInt accepts integer literals >= 0.
	ArgNonNegativeInt
)

// OperatorSpec describes a registered operator.
type OperatorSpec struct {
	Name       string
	Class      OperatorClass
	Arity      int
	Precedence int
	RightAssoc bool
}

// FunctionSpec describes a registered function. Arity counts the leading
// identifier argument. Args lists the constraints of the literal arguments.
type FunctionSpec struct {
	Name    string
	Arity   int
	Boolean bool
	Args    []ArgKind
}

// Entry is the result of Lookup. Exactly one field is set.
type Entry struct {
	Operator *OperatorSpec
	Function *FunctionSpec
}

// Registry maps operator and function names to their specs. It is read-only once built.
type Registry struct {
	operators map[string]OperatorSpec
	functions map[string]FunctionSpec
}

var defaultRegistry = newRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func newRegistry() *Registry {
	r := &Registry{
		operators: make(map[string]OperatorSpec),
		functions: make(map[string]FunctionSpec),
	}

	r.addOperator(OperatorSpec{Name: OpOr, Class: ClassLogical, Arity: 2, Precedence: PrecedenceOr})
	r.addOperator(OperatorSpec{Name: OpAnd, Class: ClassLogical, Arity: 2, Precedence: PrecedenceAnd})
	r.addOperator(OperatorSpec{Name: OpNot, Class: ClassUnary, Arity: 1, Precedence: PrecedenceNot, RightAssoc: true})
	for _, op := range []string{OpEq, OpNe, OpGt, OpGe, OpLt, OpLe} {
		r.addOperator(OperatorSpec{Name: op, Class: ClassComparison, Arity: 2, Precedence: PrecedenceComparison})
	}
	// Arity 0 marks the variadic literal list of in/nin.
	r.addOperator(OperatorSpec{Name: OpIn, Class: ClassMembership, Precedence: PrecedenceComparison})
	r.addOperator(OperatorSpec{Name: OpNin, Class: ClassMembership, Precedence: PrecedenceComparison})
	r.addOperator(OperatorSpec{Name: OpHas, Class: ClassCollection, Arity: 2, Precedence: PrecedenceComparison})

	for _, fn := range []string{FuncStartsWith, FuncEndsWith, FuncContains} {
		r.addFunction(FunctionSpec{Name: fn, Arity: 2, Boolean: true, Args: []ArgKind{ArgAny}})
	}
	r.addFunction(FunctionSpec{Name: FuncSubstring, Arity: 3, Args: []ArgKind{ArgNonNegativeInt, ArgNonNegativeInt}})
	for _, fn := range []string{FuncToLower, FuncToUpper, FuncTrim, FuncLength} {
		r.addFunction(FunctionSpec{Name: fn, Arity: 1})
	}
	r.addFunction(FunctionSpec{Name: FuncIndexOf, Arity: 2, Args: []ArgKind{ArgAny}})

	return r
}

func (r *Registry) addOperator(spec OperatorSpec) {
	r.operators[spec.Name] = spec
}

func (r *Registry) addFunction(spec FunctionSpec) {
	r.functions[spec.Name] = spec
}

// LookupOperator returns the spec of a reserved operator word.
func (r *Registry) LookupOperator(name string) (OperatorSpec, error) {
	spec, ok := r.operators[name]
	if !ok {
		return OperatorSpec{}, NewError(ErrUnknownOperator).WithName(name)
	}
	return spec, nil
}

// LookupFunction returns the spec of a function name.
func (r *Registry) LookupFunction(name string) (FunctionSpec, error) {
	spec, ok := r.functions[name]
	if !ok {
		return FunctionSpec{}, NewError(ErrUnknownFunction).WithName(name)
	}
	return spec, nil
}

// Lookup returns the operator or function registered under name. Operators win
// because the two name sets are disjoint.
func (r *Registry) Lookup(name string) (Entry, error) {
	if spec, ok := r.operators[name]; ok {
		return Entry{Operator: &spec}, nil
	}
	if spec, ok := r.functions[name]; ok {
		return Entry{Function: &spec}, nil
	}
	return Entry{}, NewError(ErrUnknownOperator).WithName(name)
}

// IsOperator reports whether word is a reserved operator. Matching is case-sensitive.
func (r *Registry) IsOperator(word string) bool {
	_, ok := r.operators[word]
	return ok
}

// IsReserved reports whether word can never be an identifier.
func (r *Registry) IsReserved(word string) bool {
	switch word {
	case "true", "false", "null":
		return true
	}
	return r.IsOperator(word)
}

// IsFunction reports whether name is a registered function. Matching is case-sensitive.
func (r *Registry) IsFunction(name string) bool {
	_, ok := r.functions[name]
	return ok
}

// Functions returns the registered function names in no particular order.
func (r *Registry) Functions() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// LookupOperator looks name up in the default registry.
func LookupOperator(name string) (OperatorSpec, error) {
	return defaultRegistry.LookupOperator(name)
}

// LookupFunction looks name up in the default registry.
func LookupFunction(name string) (FunctionSpec, error) {
	return defaultRegistry.LookupFunction(name)
}
