package bymlconv

/*
Package bymlconv converts materialised BYML trees to and from text and
interchange forms.

YAML is the editing form. Hashes become mappings and arrays become
sequences, keeping the logical child order. Kinds without a natural YAML
spelling carry a local tag:

	Int32    plain integer      42
	Float32  plain float        1.5
	Uint32   !u                 !u 42
	Int64    !l                 !l -42
	Uint64   !ul                !ul 42
	Float64  !f64               !f64 1.5
	Null     null
	Bool     true / false
	String   plain, quoted when it would read as another kind

CBOR is an export form only: the tree is projected onto plain Go values and
encoded with Core Deterministic Encoding, so the same tree always yields the
same bytes.
*/
