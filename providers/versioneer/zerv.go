package versioneer

// Zerv is the canonical document: a schema and the model it projects.
type Zerv struct {
	Schema Schema
	Vars   Vars
}

// Clone returns a deep copy.
func (z Zerv) Clone() Zerv {
	return Zerv{
		Schema: Schema{
			Core:       normalize(z.Schema.Core),
			ExtraCore:  normalize(z.Schema.ExtraCore),
			Build:      normalize(z.Schema.Build),
			Precedence: append([]Segment(nil), z.Schema.Precedence...),
		},
		Vars: z.Vars.Clone(),
	}
}
