package byml

/*

# BYML: binary tree documents

A BYML file is a typed tree of Arrays and Hashes with scalar leaves, packed
into a single buffer:

	header (16 bytes)
	hash key string table
	value string table
	64-bit value pool
	containers, in creation order

Strings never appear inline. Keys and string values are stored once, sorted,
in two string tables and referenced by their rank. 64-bit values live in a
pool and are referenced by absolute offset. Nested containers are referenced
by absolute offset too.

## Writing

Writer is a streaming builder with an explicit nesting stack. Containers are
recorded in an arena when pushed and the whole layout is computed by Save.

	w, _ := byml.NewWriter(3)
	_ = w.PushHash()
	_ = w.PutString("name", "Mario")
	_ = w.PushArrayKey("scale")
	_ = w.AddFloat32(1)
	_ = w.Pop()
	data, _ := w.Save()

## Reading

Open validates the header and string tables, Document.Root returns a Reader
positioned on the root container. A Reader is a read-only view over the
source buffer; child containers are new Readers.

Hash children are presented in a logical order: nested containers first, in
file order, then scalar entries in key order. This matches the order in which
the Writer created the containers.

## Versions

Versions 2 and 3 are supported. 64-bit values (Int64, Uint64, Float64) need
version 3; both the Writer and the Reader refuse them otherwise.
*/
