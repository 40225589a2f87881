package chunker

// `Grouper` chunks candidates whose tapes are known.  A chunk holds at most
// `MaxFiles` files on at most `MaxTapes` tapes.  Zero means no limit.
type Grouper struct {
	MaxTapes int
	MaxFiles int
}

// `Group()` walks the tapes in the order in which they first appear and
// appends each tape's files to the current chunk.  It starts a new chunk
// when the current one is full or when adding a tape would exceed the tape
// limit.  Files are ordered by tape, and by input order within a tape.
func (g Grouper) Group(cands []Candidate) []Chunk {
	var tapes []string
	byTape := make(map[string][]Candidate)
	for _, c := range cands {
		if _, ok := byTape[c.Location]; !ok {
			tapes = append(tapes, c.Location)
		}
		byTape[c.Location] = append(byTape[c.Location], c)
	}

	var chunks []Chunk
	var cur []Candidate
	nTapes := 0
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, Chunk{Candidates: cur})
		}
		cur = nil
		nTapes = 0
	}

	for _, t := range tapes {
		if g.MaxTapes > 0 && nTapes+1 > g.MaxTapes {
			flush()
		}
		nTapes++
		for _, c := range byTape[t] {
			if g.MaxFiles > 0 && len(cur) == g.MaxFiles {
				flush()
				nTapes = 1
			}
			cur = append(cur, c)
		}
	}
	flush()
	return chunks
}
