package unifier

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/openpayments/isotools/parser"
)

// Signature is a canonical, order-preserving digest of a type definition's
// structural shape. Two definitions have equal signatures iff they are
// interchangeable substitutes at every reference site: same wire
// representation, same validation behavior.
//
// Nested references resolve to the referenced definition's own signature, so
// equality is structural rather than nominal. The digest is a fixed-size
// hash; embedding child signatures keeps extraction linear in the number of
// definitions instead of exploding on deep shapes.
type Signature string

// ExclusionReason explains why a definition was excluded from deduplication.
type ExclusionReason string

const (
	// ReasonUnresolvable marks a definition with a field type reference the
	// extractor could not locate.
	ReasonUnresolvable ExclusionReason = "unresolvable"
	// ReasonRecursive marks a self-referential definition, directly or
	// transitively. Recursive shapes are never merged: merge correctness
	// cannot be proven without deeper alias analysis.
	ReasonRecursive ExclusionReason = "recursive"
)

// Exclusion records one definition kept out of deduplication.
type Exclusion struct {
	// Module is the tree-relative path of the owning module.
	Module string
	// TypeName is the excluded definition.
	TypeName string
	// Reason is why the definition was excluded.
	Reason ExclusionReason
	// Ref is the offending reference for ReasonUnresolvable.
	Ref string
}

func (e Exclusion) describe() string {
	if e.Reason == ReasonUnresolvable {
		return "unresolvable reference to " + e.Ref
	}
	return "recursive shape"
}

// SignatureSet maps every type definition in a tree to its structural
// signature, along with the definitions excluded from deduplication.
//
// Excluded definitions still carry a signature, but a nominal one derived
// from their own module and name, so they can never group with a definition
// from another module.
type SignatureSet struct {
	Signatures map[*parser.TypeDefinition]Signature
	Exclusions []Exclusion

	excluded map[*parser.TypeDefinition]ExclusionReason
}

// Excluded reports whether the definition was kept out of deduplication.
func (s *SignatureSet) Excluded(td *parser.TypeDefinition) bool {
	_, ok := s.excluded[td]
	return ok
}

// DistinctShapes returns the number of distinct structural signatures in the
// set. Unification must conserve this count: it removes duplicate copies,
// never shapes.
func (s *SignatureSet) DistinctShapes() int {
	seen := make(map[Signature]bool, len(s.Signatures))
	for _, sig := range s.Signatures {
		seen[sig] = true
	}
	return len(seen)
}

// ExtractSignatures computes the structural signature of every type
// definition in the tree. The result is intrinsic to shape: it does not
// depend on module iteration order.
func ExtractSignatures(tree *parser.Tree) *SignatureSet {
	x := &extractor{
		tree:     tree,
		sigs:     make(map[*parser.TypeDefinition]Signature, tree.TypeCount()),
		inFlight: make(map[*parser.TypeDefinition]bool),
		excluded: make(map[*parser.TypeDefinition]ExclusionReason),
	}
	for _, mod := range tree.Modules {
		for _, td := range mod.Types {
			x.signatureOf(td)
		}
	}

	set := &SignatureSet{
		Signatures: x.sigs,
		excluded:   x.excluded,
	}
	for td, reason := range x.excluded {
		e := Exclusion{Module: td.Module.Path, TypeName: td.Name, Reason: reason}
		if reason == ReasonUnresolvable {
			e.Ref = x.unresolvableRefs[td]
		}
		set.Exclusions = append(set.Exclusions, e)
	}
	sort.Slice(set.Exclusions, func(i, j int) bool {
		a, b := set.Exclusions[i], set.Exclusions[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		return a.TypeName < b.TypeName
	})
	return set
}

type extractor struct {
	tree *parser.Tree
	sigs map[*parser.TypeDefinition]Signature
	// inFlight tracks definitions currently on the recursion stack for
	// cycle detection; stack preserves entry order so every member of a
	// detected cycle can be excluded.
	inFlight map[*parser.TypeDefinition]bool
	stack    []*parser.TypeDefinition

	excluded         map[*parser.TypeDefinition]ExclusionReason
	unresolvableRefs map[*parser.TypeDefinition]string
}

// signatureOf returns the definition's signature, computing and memoizing
// it on first use.
func (x *extractor) signatureOf(td *parser.TypeDefinition) Signature {
	if sig, done := x.sigs[td]; done {
		return sig
	}
	if x.inFlight[td] {
		// Re-entered a definition mid-computation: everything on the stack
		// from that definition onward forms a cycle.
		x.markCycle(td)
		return nominalSignature(td)
	}

	x.inFlight[td] = true
	x.stack = append(x.stack, td)
	encoding := x.encode(td)
	x.stack = x.stack[:len(x.stack)-1]
	delete(x.inFlight, td)

	var sig Signature
	if _, isExcluded := x.excluded[td]; isExcluded {
		sig = nominalSignature(td)
	} else {
		sum := sha256.Sum256([]byte(encoding))
		sig = Signature(hex.EncodeToString(sum[:]))
	}
	x.sigs[td] = sig
	return sig
}

// markCycle excludes every definition on the stack from the re-entered
// definition onward.
func (x *extractor) markCycle(entry *parser.TypeDefinition) {
	start := len(x.stack) - 1
	for start >= 0 && x.stack[start] != entry {
		start--
	}
	if start < 0 {
		start = 0
	}
	for _, td := range x.stack[start:] {
		if _, already := x.excluded[td]; !already {
			x.excluded[td] = ReasonRecursive
		}
	}
}

// markUnresolvable excludes a definition because one of its references
// cannot be located.
func (x *extractor) markUnresolvable(td *parser.TypeDefinition, ref string) {
	if _, already := x.excluded[td]; already {
		return
	}
	x.excluded[td] = ReasonUnresolvable
	if x.unresolvableRefs == nil {
		x.unresolvableRefs = make(map[*parser.TypeDefinition]string)
	}
	x.unresolvableRefs[td] = ref
}

// encode builds the canonical structural encoding of one definition.
// Field order is significant; nothing here is sorted.
func (x *extractor) encode(td *parser.TypeDefinition) string {
	var b strings.Builder
	b.WriteString(string(td.Kind))
	b.WriteByte('{')

	switch td.Kind {
	case parser.KindWrapper:
		b.WriteString(td.Underlying)
		b.WriteByte('|')
		b.WriteString(td.Constraint)
	case parser.KindEnum:
		b.WriteString(td.Underlying)
		b.WriteByte('|')
		b.WriteString(td.Constraint)
		for _, v := range td.Values {
			b.WriteByte(';')
			b.WriteString(v.Name)
			b.WriteByte('=')
			b.WriteString(v.Value)
		}
	case parser.KindRecord:
		if td.IsRootDocument() {
			b.WriteString("root:")
			b.WriteString(td.XMLNameTag)
			b.WriteByte(';')
		}
		for _, f := range td.Fields {
			b.WriteString(f.Name)
			b.WriteByte('|')
			b.WriteString(x.refKey(td, f.Type))
			b.WriteByte('|')
			b.WriteString(f.XMLTag)
			b.WriteByte('|')
			b.WriteString(f.JSONTag)
			b.WriteByte('|')
			b.WriteString(f.Validate)
			b.WriteByte(';')
		}
	}

	b.WriteByte('}')
	return b.String()
}

// refKey encodes one field type reference. Terminal references encode by
// name; references to generated types encode by the target's signature; an
// excluded or unresolvable target falls back to the target's nominal key so
// the referrer stays comparable but module-bound.
func (x *extractor) refKey(owner *parser.TypeDefinition, ref parser.TypeRef) string {
	var prefix string
	if ref.Slice {
		prefix += "[]"
	}
	if ref.Pointer {
		prefix += "*"
	}
	if ref.Terminal() {
		return prefix + "t:" + ref.Name
	}

	target := x.tree.Lookup(owner.Module, ref)
	if target == nil {
		x.markUnresolvable(owner, refDisplay(owner, ref))
		return prefix + "missing:" + refDisplay(owner, ref)
	}

	sig := x.signatureOf(target)
	if _, isExcluded := x.excluded[target]; isExcluded {
		return prefix + string(nominalSignature(target))
	}
	return prefix + "s:" + string(sig)
}

// nominalSignature derives a signature from the definition's identity alone.
// It is unique per (module, name), so nominally-signed definitions never
// form cross-module duplicate groups.
func nominalSignature(td *parser.TypeDefinition) Signature {
	return Signature("nominal:" + td.Module.Path + "." + td.Name)
}

// refDisplay renders a reference for diagnostics.
func refDisplay(owner *parser.TypeDefinition, ref parser.TypeRef) string {
	if ref.Module != "" {
		return ref.Module + "." + ref.Name
	}
	if owner.Module != nil {
		return owner.Module.Path + "." + ref.Name
	}
	return ref.Name
}
