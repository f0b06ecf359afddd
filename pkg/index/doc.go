/*
Package index implements the positional bitset index behind WordMask.

Words are grouped by length. Inside a group every word gets an id, its position
in the group's word list, and for each letter and character position the group
keeps one bitset with bit i set when word i carries that letter there.

A pattern query intersects the bitsets of its fixed positions and decodes the
surviving ids back into words:

	idx := index.Build([]string{"cat", "car", "can", "dog", "dot"})
	words, err := idx.Query(3, index.ParsePattern("ca_"))
	// words == [cat car can]

Only the letters a through z are tracked. The wildcard '_' and any other
character leave their position unconstrained. Results come back in ascending
id order, which is the order the words were first added.

An Index is immutable once Build or Builder.Finish returns it, so any number of
goroutines may query it without locking.
*/
package index
