package bffnt

/*
Package bffnt decodes BFFNT bitmap fonts.

A font is a small header followed by blocks. FINF carries the font metrics and
points at the first TGLP, CWDH and CMAP blocks. Every block pointer addresses
the block body, eight bytes past the block's signature and size.

  - TGLP describes the glyph sheets. Each sheet is an embedded BNTX texture
    stored back to back from the image data offset.
  - CWDH blocks form a chain of glyph width ranges.
  - CMAP blocks form a chain of code point to glyph mappings, each using one
    of the direct, table or scan methods.

Chains end at a zero next pointer. Decode rejects chains that revisit a
block.
*/
