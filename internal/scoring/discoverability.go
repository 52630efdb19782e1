package scoring

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/nao1215/pagescope/internal/model"
	"github.com/nao1215/pagescope/internal/protocol"
)

// Discoverability check IDs.
const (
	CheckProtocolServed      = "protocol_served"
	CheckProtocolContentType = "protocol_content_type"
	CheckDiscoveryLink       = "discovery_link"
	CheckDiscoveryFiles      = "discovery_files"
)

var discoverabilityRules = struct {
	served, contentType, link, files rule
}{
	served: rule{
		id: CheckProtocolServed, name: "Protocol served", maxPoints: 5,
		scale: atLeast(1, 5), pass: passAtMax,
	},
	contentType: rule{
		id: CheckProtocolContentType, name: "Protocol content type", maxPoints: 3,
		scale: atLeast(2, 3, 1, 1), pass: passAtMax,
	},
	link: rule{
		id: CheckDiscoveryLink, name: "Discovery link tag", maxPoints: 3,
		scale: atLeast(1, 3), pass: passAtMax,
	},
	files: rule{
		id: CheckDiscoveryFiles, name: "Discovery files", maxPoints: 4,
		scale: atLeast(2, 4, 1, 2), pass: passValueAtLeast(1),
	},
}

type discoverability struct {
	files       SiteFiles
	negotiation protocol.Negotiation
}

func (d *discoverability) Category() string { return model.CategoryDiscoverability }

func (d *discoverability) MaxPoints() int { return 15 }

func (d *discoverability) Evaluate(ctx context.Context, in Input) []model.ScoreCheck {
	r := discoverabilityRules
	probe := in.Probe
	media := d.negotiation.MediaType()

	served := r.served.evaluate(present(probe.Supported),
		fmt.Sprintf("%s header on HEAD: %s", d.negotiation.Header(protocol.FieldVersion), presence(probe.Supported)))

	var contentType model.ScoreCheck
	if probe.ContentType == nil {
		contentType = r.contentType.missing("no " + media + " response")
	} else {
		level := contentTypeLevel(*probe.ContentType, media)
		contentType = r.contentType.evaluate(level, "Content-Type: "+*probe.ContentType)
	}

	link := r.link.evaluate(present(probe.HasDiscoveryLink),
		fmt.Sprintf(`<link rel="alternate" type="%s">: %s`, media, presence(probe.HasDiscoveryLink)))

	var found model.DiscoveryFiles
	if d.files != nil {
		found = d.files.DiscoveryFiles(ctx, in.Page.FinalURL)
	}
	files := r.files.evaluate(float64(found.Count()),
		fmt.Sprintf("%s: %s, %s: %s", protocol.LLMsTxtPath, presence(found.LLMsTxt),
			d.negotiation.WellKnownPath(), presence(found.WellKnown)))

	return []model.ScoreCheck{served, contentType, link, files}
}

// contentTypeLevel returns 2 for the protocol media type, 1 for generic
// Markdown or plain text and 0 otherwise.
func contentTypeLevel(value, media string) float64 {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(value, ";", 2)[0]))
	}
	switch mt {
	case media:
		return 2
	case "text/markdown", "text/plain":
		return 1
	default:
		return 0
	}
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
