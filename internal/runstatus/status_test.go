package runstatus

import "testing"

func TestSequenceIsCopied(t *testing.T) {
	seq := Sequence()
	if len(seq) != 5 || seq[0] != ResolvingMetadata || seq[4] != Done {
		t.Fatalf("Sequence() = %v", seq)
	}
	seq[0] = "mutated"
	if Sequence()[0] != ResolvingMetadata {
		t.Fatalf("Sequence() must return a copy")
	}
}
