package app

import "testing"

func TestParseReplyWithRecommendations(t *testing.T) {
	reply := parseArchivistReply("Hello\n\nRECOMMENDATIONS:\n{\"comics\":[{\"title\":\"Saga\"}]}")
	if reply.message != "Hello" {
		t.Fatalf("message = %q", reply.message)
	}
	if len(reply.recommendations) != 1 {
		t.Fatalf("recommendations = %d", len(reply.recommendations))
	}
	if reply.recommendations[0].Title != "Saga" {
		t.Fatalf("title = %q", reply.recommendations[0].Title)
	}
}

func TestParseReplyWithoutMarker(t *testing.T) {
	text := "Just a message, no block"
	reply := parseArchivistReply(text)
	if reply.message != text {
		t.Fatalf("message = %q", reply.message)
	}
	if len(reply.recommendations) != 0 {
		t.Fatalf("recommendations = %d, want none", len(reply.recommendations))
	}
}

func TestParseReplyMalformedJSON(t *testing.T) {
	reply := parseArchivistReply("Try these.\nRECOMMENDATIONS:\n{\"comics\":[{\"title\":\"Sa")
	if reply.message != "Try these." {
		t.Fatalf("message = %q", reply.message)
	}
	if len(reply.recommendations) != 0 {
		t.Fatalf("recommendations = %d, want none on malformed JSON", len(reply.recommendations))
	}
}

func TestParseReplyMissingComicsArray(t *testing.T) {
	reply := parseArchivistReply("Here.\nRECOMMENDATIONS:\n{\"books\":[]}")
	if reply.message != "Here." {
		t.Fatalf("message = %q", reply.message)
	}
	if len(reply.recommendations) != 0 {
		t.Fatalf("recommendations = %d", len(reply.recommendations))
	}
}

func TestParseReplyFullFields(t *testing.T) {
	text := `Great picks below.
RECOMMENDATIONS:
{"comics":[{"title":"Monstress #1","series":"Monstress","writer":"Marjorie Liu","artist":"Sana Takeda","publisher":"Image","year":2015},{"title":"Hellboy","year":"1994"}]}`
	reply := parseArchivistReply(text)
	if len(reply.recommendations) != 2 {
		t.Fatalf("recommendations = %d", len(reply.recommendations))
	}
	first := reply.recommendations[0]
	if first.Writer != "Marjorie Liu" || first.Artist != "Sana Takeda" || first.Year != 2015 {
		t.Fatalf("first = %+v", first)
	}
	if reply.recommendations[1].Year != 1994 {
		t.Fatalf("string year not coerced: %+v", reply.recommendations[1])
	}
}

func TestParseReplyNonNumericYear(t *testing.T) {
	reply := parseArchivistReply(`RECOMMENDATIONS: {"comics":[{"title":"Bone","year":"early 90s"}]}`)
	if len(reply.recommendations) != 1 {
		t.Fatalf("recommendations = %d", len(reply.recommendations))
	}
	if reply.recommendations[0].Year != 0 {
		t.Fatalf("year = %d, want 0 for unparseable year", reply.recommendations[0].Year)
	}
}
