package format

import "strings"

// Slot identifies which value a placeholder stands for.
type Slot int

const (
	// SlotNone marks a literal text segment.
	SlotNone Slot = iota
	// SlotSubject is written as #{this}.
	SlotSubject
	// SlotActual is written as #{act}.
	SlotActual
	// SlotExpected is written as #{exp}.
	SlotExpected
)

var slotNames = map[string]Slot{
	"this": SlotSubject,
	"act":  SlotActual,
	"exp":  SlotExpected,
}

func (s Slot) String() string {
	switch s {
	case SlotSubject:
		return "#{this}"
	case SlotActual:
		return "#{act}"
	case SlotExpected:
		return "#{exp}"
	default:
		return "literal"
	}
}

type segment struct {
	slot Slot
	text string
}

// Values holds what a template's placeholders are filled with.
type Values struct {
	Subject  any
	Actual   any
	Expected any
	// Label, when not empty, is prepended as "<label>: ".
	Label string
}

func (v Values) slot(s Slot) any {
	switch s {
	case SlotSubject:
		return v.Subject
	case SlotActual:
		return v.Actual
	case SlotExpected:
		return v.Expected
	}
	return nil
}

// Template is a parsed message: an ordered list of literal text and
// placeholder segments. The zero Template renders as an empty message.
type Template struct {
	segments []segment
}

// Parse splits text into literal and placeholder segments. Markers other
// than #{this}, #{act} and #{exp} are kept as literal text.
func Parse(text string) Template {
	var t Template
	for len(text) > 0 {
		start := strings.Index(text, "#{")
		if start < 0 {
			t = t.Literal(text)
			break
		}
		end := strings.IndexByte(text[start:], '}')
		if end < 0 {
			t = t.Literal(text)
			break
		}
		end += start

		slot, ok := slotNames[text[start+2:end]]
		if !ok {
			t = t.Literal(text[:start+2])
			text = text[start+2:]
			continue
		}
		t = t.Literal(text[:start])
		t.segments = append(t.segments, segment{slot: slot})
		text = text[end+1:]
	}
	return t
}

// Literal returns a copy of t with s appended as plain text. s is never
// interpreted as placeholder syntax.
func (t Template) Literal(s string) Template {
	if s == "" {
		return t
	}
	out := t.clone(1)
	if n := len(out.segments); n > 0 && out.segments[n-1].slot == SlotNone {
		out.segments[n-1].text += s
		return out
	}
	out.segments = append(out.segments, segment{slot: SlotNone, text: s})
	return out
}

// Text is Literal for a formatted value.
func (t Template) Text(v any) Template {
	return t.Literal(Value(v))
}

// Append returns a copy of t followed by u's segments.
func (t Template) Append(u Template) Template {
	out := t.clone(len(u.segments))
	for _, seg := range u.segments {
		if seg.slot == SlotNone {
			out = out.Literal(seg.text)
			continue
		}
		out.segments = append(out.segments, seg)
	}
	return out
}

func (t Template) clone(extra int) Template {
	segments := make([]segment, len(t.segments), len(t.segments)+extra)
	copy(segments, t.segments)
	return Template{segments: segments}
}

// Slots lists the placeholders t uses, in order of appearance.
func (t Template) Slots() []Slot {
	var slots []Slot
	for _, seg := range t.segments {
		if seg.slot != SlotNone {
			slots = append(slots, seg.slot)
		}
	}
	return slots
}

// Render fills the placeholders with formatted values.
func (t Template) Render(v Values) string {
	var b strings.Builder
	if v.Label != "" {
		b.WriteString(v.Label)
		b.WriteString(": ")
	}
	for _, seg := range t.segments {
		if seg.slot == SlotNone {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(Value(v.slot(seg.slot)))
	}
	return b.String()
}

// String returns the template in its #{...} source form.
func (t Template) String() string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.slot == SlotNone {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(seg.slot.String())
	}
	return b.String()
}
