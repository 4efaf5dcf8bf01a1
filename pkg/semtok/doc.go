/*
Package semtok classifies the projection of a document into lexical tokens.

	  Projection                 Atoms (token ranges + labels)
	      |                            |
	      v                            v
	+-----------+   free text   +-------------+
	|  segment  | ------------> | rule lexer  |
	+-----------+               +-------------+
	      |                            |
	   atom run                 Operator, Bracket,
	      |                     Number, Function,
	      v                     Property, Error
	  Property                         |
	      \____________________________/
	                    |
	                 []Token

Atom runs are never lexed character by character: each becomes one Property
token spanning the whole atom, carrying the atom's label as its text. Free text
between atoms is lexed with a participle rule lexer. Whitespace and characters
outside the grammar are skipped without error.

All offsets are rune offsets into the projection.
*/
package semtok
