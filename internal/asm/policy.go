package asm

// Policy is the opcode allow-list for one injection site. The lists are
// empirical: certain architecturally legal sequences were observed to
// destabilise the host program only when run inside a specific interrupt-time
// context, for reasons that were never fully pinned down. A policy therefore
// encodes "known not to break here", not "proven safe" — it is a lint pass
// against regressing into a previously-found-unsafe pattern, and it lives in
// data so it can be corrected without touching the assembler.
type Policy map[Op]struct{}

// Allow builds a policy from the listed instruction variants.
func Allow(ops ...Op) Policy {
	p := make(Policy, len(ops))
	for _, op := range ops {
		p[op] = struct{}{}
	}
	return p
}

// With returns a copy of the policy extended with additional variants.
func (p Policy) With(ops ...Op) Policy {
	out := make(Policy, len(p)+len(ops))
	for op := range p {
		out[op] = struct{}{}
	}
	for _, op := range ops {
		out[op] = struct{}{}
	}
	return out
}

// Allows reports whether the variant is on the allow-list. A nil policy
// allows everything.
func (p Policy) Allows(op Op) bool {
	if p == nil {
		return true
	}
	_, ok := p[op]
	return ok
}
