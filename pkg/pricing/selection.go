package pricing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

// DesignOrderSelection is what a shopper configured for one cart line. Its
// JSON form is the opaque string attached to the cart line and re-parsed at
// add-to-cart and at order finalize.
type DesignOrderSelection struct {
	Colors           []ColorKey                        `json:"colors"`
	Quantities       map[ColorKey]map[string]int       `json:"quantities"`
	DecorationMethod *string                           `json:"decoration_method"`
	Positions        []enums.PrintPosition             `json:"positions"`
	DesignPositions  map[enums.PrintPosition]Placement `json:"design_positions,omitempty"`
	Designs          map[enums.PrintPosition]string    `json:"designs,omitempty"`
	PositionMethods  map[enums.PrintPosition]string    `json:"decoration_methods,omitempty"`
}

const (
	// MaxLineQuantity caps a single color/size entry.
	MaxLineQuantity = 1_000_000
	// MaxTotalQuantity caps the selection total so it fits an integer column.
	MaxTotalQuantity = math.MaxInt32
)

// QuantityLine is one non-aggregated (color, size, quantity) entry.
type QuantityLine struct {
	ColorKey ColorKey `json:"color_key"`
	Size     string   `json:"size"`
	Quantity int      `json:"quantity"`
}

// TotalQuantity sums every color/size quantity. Validation and tier
// resolution both read this value.
func (s DesignOrderSelection) TotalQuantity() int {
	total := 0
	for _, bySize := range s.Quantities {
		for _, qty := range bySize {
			total += qty
		}
	}
	return total
}

// Method returns the chosen decoration method or "" when none was picked.
func (s DesignOrderSelection) Method() string {
	if s.DecorationMethod == nil {
		return ""
	}
	return *s.DecorationMethod
}

// HasPosition reports whether artwork was uploaded for pos.
func (s DesignOrderSelection) HasPosition(pos enums.PrintPosition) bool {
	for _, p := range s.Positions {
		if p == pos {
			return true
		}
	}
	return false
}

// PlacementFor returns the stored placement for pos or the default one.
func (s DesignOrderSelection) PlacementFor(pos enums.PrintPosition) Placement {
	if p, ok := s.DesignPositions[pos]; ok {
		return p
	}
	return DefaultPlacement()
}

// Lines flattens Quantities in catalog order: colors by their position in the
// catalog, sizes by their position in that color's size list. Entries the
// catalog does not know sort last, lexically. Zero quantities are skipped.
func (s DesignOrderSelection) Lines(cfg ProductDesignConfig) []QuantityLine {
	lines := make([]QuantityLine, 0)
	for color, bySize := range s.Quantities {
		for size, qty := range bySize {
			if qty <= 0 {
				continue
			}
			lines = append(lines, QuantityLine{ColorKey: color, Size: size, Quantity: qty})
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.ColorKey != b.ColorKey {
			ra, rb := rank(cfg.colorIndex(a.ColorKey)), rank(cfg.colorIndex(b.ColorKey))
			if ra != rb {
				return ra < rb
			}
			return a.ColorKey < b.ColorKey
		}
		ra, rb := rank(cfg.sizeRank(a.ColorKey, a.Size)), rank(cfg.sizeRank(b.ColorKey, b.Size))
		if ra != rb {
			return ra < rb
		}
		return a.Size < b.Size
	})
	return lines
}

func rank(idx int) int {
	if idx < 0 {
		return int(^uint(0) >> 1)
	}
	return idx
}

var dataImagePattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif);base64,[A-Za-z0-9+/=\s]+$`)

// ParseSelection decodes and normalizes the wire form of a selection. It
// rejects negative or oversized quantities, unknown positions and unusable asset
// references; it does not check the selection against a catalog.
func ParseSelection(raw []byte) (DesignOrderSelection, error) {
	var wire DesignOrderSelection
	if err := json.Unmarshal(raw, &wire); err != nil {
		return DesignOrderSelection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "design selection is not valid json")
	}
	return NormalizeSelection(wire)
}

// NormalizeSelection canonicalizes color keys, positions and labels. All
// problems are reported together in the error details.
func NormalizeSelection(in DesignOrderSelection) (DesignOrderSelection, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	out := DesignOrderSelection{
		Colors:     make([]ColorKey, 0, len(in.Colors)),
		Quantities: make(map[ColorKey]map[string]int, len(in.Quantities)),
		Positions:  make([]enums.PrintPosition, 0, len(in.Positions)),
	}

	seenColors := map[ColorKey]struct{}{}
	for _, raw := range in.Colors {
		key, err := ParseColorKey(string(raw))
		if err != nil {
			addf("colors: %v", err)
			continue
		}
		if _, dup := seenColors[key]; dup {
			continue
		}
		seenColors[key] = struct{}{}
		out.Colors = append(out.Colors, key)
	}

	total := 0
	for raw, bySize := range in.Quantities {
		key, err := ParseColorKey(string(raw))
		if err != nil {
			addf("quantities: %v", err)
			continue
		}
		if _, dup := out.Quantities[key]; dup {
			addf("quantities: color %q listed more than once", key)
			continue
		}
		levels := make(map[string]int, len(bySize))
		for size, qty := range bySize {
			label := strings.TrimSpace(size)
			if label == "" {
				addf("quantities[%s]: size label is required", key)
				continue
			}
			if qty < 0 {
				addf("quantities[%s][%s]: quantity must be >= 0", key, label)
				continue
			}
			if qty > MaxLineQuantity || levels[label]+qty > MaxLineQuantity {
				addf("quantities[%s][%s]: quantity must be <= %d", key, label, MaxLineQuantity)
				continue
			}
			levels[label] += qty
			total += qty
		}
		out.Quantities[key] = levels
	}
	if total > MaxTotalQuantity {
		addf("quantities: total must be <= %d", MaxTotalQuantity)
	}

	if in.DecorationMethod != nil {
		if method := strings.TrimSpace(*in.DecorationMethod); method != "" {
			out.DecorationMethod = &method
		}
	}

	seenPositions := map[enums.PrintPosition]struct{}{}
	for _, raw := range in.Positions {
		pos, err := enums.ParsePrintPosition(strings.ToLower(strings.TrimSpace(string(raw))))
		if err != nil {
			addf("positions: %v", err)
			continue
		}
		if _, dup := seenPositions[pos]; dup {
			continue
		}
		seenPositions[pos] = struct{}{}
		out.Positions = append(out.Positions, pos)
	}

	if len(in.DesignPositions) > 0 {
		out.DesignPositions = make(map[enums.PrintPosition]Placement, len(in.DesignPositions))
		for pos, placement := range in.DesignPositions {
			if !pos.IsValid() {
				addf("design_positions: invalid print position %q", pos)
				continue
			}
			if !placement.finite() {
				addf("design_positions[%s]: coordinates must be finite numbers", pos)
				continue
			}
			out.DesignPositions[pos] = placement
		}
	}

	if len(in.Designs) > 0 {
		out.Designs = make(map[enums.PrintPosition]string, len(in.Designs))
		for pos, ref := range in.Designs {
			if !pos.IsValid() {
				addf("designs: invalid print position %q", pos)
				continue
			}
			ref = strings.TrimSpace(ref)
			if !IsAssetReference(ref) {
				addf("designs[%s]: asset must be an http(s) url or an image data uri", pos)
				continue
			}
			out.Designs[pos] = ref
		}
	}

	if len(in.PositionMethods) > 0 {
		out.PositionMethods = make(map[enums.PrintPosition]string, len(in.PositionMethods))
		for pos, method := range in.PositionMethods {
			if !pos.IsValid() {
				addf("decoration_methods: invalid print position %q", pos)
				continue
			}
			if method = strings.TrimSpace(method); method != "" {
				out.PositionMethods[pos] = method
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return DesignOrderSelection{}, pkgerrors.New(pkgerrors.CodeValidation, "design selection is malformed").
			WithDetails(map[string]any{"problems": problems})
	}
	return out, nil
}

// Encode renders the selection in its wire form.
func (s DesignOrderSelection) Encode() (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode design selection: %w", err)
	}
	return string(body), nil
}

// IsInlineImage reports whether ref carries the image bytes as a data URI.
func IsInlineImage(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// DecodeInlineImage splits an image data URI into its content type, the file
// extension used when storing it, and the decoded bytes.
func DecodeInlineImage(ref string) (contentType, ext string, data []byte, err error) {
	m := dataImagePattern.FindStringSubmatch(ref)
	if m == nil {
		return "", "", nil, fmt.Errorf("not an inline image")
	}
	ext = m[1]
	if ext == "jpg" {
		ext = "jpeg"
	}
	payload := ref[strings.Index(ref, ",")+1:]
	payload = strings.Join(strings.Fields(payload), "")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", nil, fmt.Errorf("decode inline image: %w", err)
	}
	return "image/" + ext, ext, data, nil
}

// IsAssetReference accepts http(s) URLs and base64 png/jpeg/gif data URIs.
func IsAssetReference(ref string) bool {
	if ref == "" {
		return false
	}
	if strings.HasPrefix(ref, "data:") {
		return dataImagePattern.MatchString(ref)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
