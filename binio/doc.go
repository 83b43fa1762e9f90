package binio

/*

# Fixed-width binary primitives for the asset codecs

Every container format handled by this module shares the same low level
shape: a short signature, a byte-order mark, and a body of fixed-width
integers and floats addressed by absolute offset.

- readers take the whole file buffer and an absolute offset
- the read helpers do not range check; decoders call Check once per region
- Buffer is the write side: writes at arbitrary offsets extend the buffer with
  zeros, so a layout can be emitted out of order

Byte order is a property of each file, never of the process.
*/
