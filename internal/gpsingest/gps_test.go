package gpsingest

import "testing"

func TestExtractSentenceValidChecksum(t *testing.T) {
	// $GPGGA,...*4F is a textbook-valid NMEA checksum example.
	line := "$GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031*4F"
	sentence, ok := ExtractSentence(line)
	if !ok {
		t.Fatalf("ExtractSentence rejected a validly-checksummed line")
	}
	if sentence != line {
		t.Fatalf("sentence = %q, want %q", sentence, line)
	}
}

func TestExtractSentenceBadChecksumRejected(t *testing.T) {
	line := "$GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031*00"
	if _, ok := ExtractSentence(line); ok {
		t.Fatalf("ExtractSentence accepted a line with a corrupted checksum")
	}
}

func TestExtractSentenceNoDollarRejected(t *testing.T) {
	if _, ok := ExtractSentence("garbage without a sentinel"); ok {
		t.Fatalf("ExtractSentence accepted a line with no '$'")
	}
}

func TestExtractSentenceNoStarRejected(t *testing.T) {
	if _, ok := ExtractSentence("$GPGGA,no,checksum,field"); ok {
		t.Fatalf("ExtractSentence accepted a line with no checksum field")
	}
}

func TestXorChecksumKnownValue(t *testing.T) {
	// Body of the sentence in TestExtractSentenceValidChecksum checksums to 0x4F.
	body := "GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031"
	if got := xorChecksum(body); got != 0x4F {
		t.Fatalf("xorChecksum = %#x, want 0x4f", got)
	}
}
