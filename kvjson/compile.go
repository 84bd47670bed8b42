package kvjson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/openjson/icu"
	"github.com/minios-linux/openjson/openstring"
	"github.com/minios-linux/openjson/structjson"
	"github.com/minios-linux/openjson/transcriber"
)

// inserter holds the state of one compile pass.
type inserter struct {
	h     *Handler
	tr    *transcriber.Transcriber
	strs  []*openstring.OpenString
	next  int
	final bool
}

func newInserter(h *Handler, template string, strs []*openstring.OpenString, final bool) *inserter {
	return &inserter{
		h:     h,
		tr:    transcriber.New(template),
		strs:  strs,
		final: final,
	}
}

func (in *inserter) pending() *openstring.OpenString {
	if in.next < len(in.strs) {
		return in.strs[in.next]
	}
	return nil
}

// container walks the children of n, opening one section per member or
// item. It reports whether at least one child survived.
func (in *inserter) container(n *structjson.Node) (bool, error) {
	kept := false
	if n.Kind == structjson.Object {
		for _, m := range n.Members {
			// The section starts at the key's opening quote.
			if err := in.tr.CopyUntil(m.KeyPos - 1); err != nil {
				return false, err
			}
			in.tr.MarkSectionStart()
			ok, err := in.item(m.Key, m.Value)
			if err != nil {
				return false, err
			}
			kept = kept || ok
		}
		return kept, nil
	}
	for i, v := range n.Items {
		if err := in.tr.CopyUntil(v.Start()); err != nil {
			return false, err
		}
		in.tr.MarkSectionStart()
		ok, err := in.item(strconv.Itoa(i), v)
		if err != nil {
			return false, err
		}
		kept = kept || ok
	}
	return kept, nil
}

// item fills or drops one value and closes the section opened for it.
func (in *inserter) item(name string, v structjson.Value) (bool, error) {
	switch v.Kind {
	case structjson.String:
		if isBlank(v) {
			return true, in.tr.KeepSection()
		}
		s := in.pending()
		if s != nil {
			repl := s.TemplateReplacement()
			if s.Pluralized() {
				if at := strings.Index(v.Raw, repl); at >= 0 {
					return true, in.plural(v, s, at)
				}
			} else if v.Raw == repl {
				return true, in.regular(v, s)
			}
		}
		return false, in.drop(name, v)

	case structjson.Object, structjson.Array:
		if v.Node.Len() == 0 {
			return true, in.tr.KeepSection()
		}
		kept, err := in.container(v.Node)
		if err != nil {
			return false, err
		}
		if !kept {
			return false, in.drop(name, v)
		}
		return true, in.tr.KeepSection()
	}
	return true, in.tr.KeepSection()
}

func (in *inserter) regular(v structjson.Value, s *openstring.OpenString) error {
	text := s.TemplateReplacement()
	if in.final {
		text = s.String()
	}
	if err := in.tr.CopyUntil(v.Pos); err != nil {
		return err
	}
	in.tr.Add(text)
	if err := in.tr.Skip(len(v.Raw)); err != nil {
		return err
	}
	in.next++
	return in.tr.KeepSection()
}

func (in *inserter) plural(v structjson.Value, s *openstring.OpenString, at int) error {
	repl := s.TemplateReplacement()
	text := repl
	if in.final {
		text = icu.Serialize(s.Strings)
	}
	if err := in.tr.CopyUntil(v.Pos + at); err != nil {
		return err
	}
	in.tr.Add(text)
	if err := in.tr.Skip(len(repl)); err != nil {
		return err
	}
	if err := in.tr.Copy(len(v.Raw) - at - len(repl)); err != nil {
		return err
	}
	in.next++
	return in.tr.KeepSection()
}

// drop ends the current section after v and removes it. STRUCTURED_JSON
// and CHROME keep the section, leaving the placeholder in the output.
func (in *inserter) drop(name string, v structjson.Value) error {
	if err := in.tr.CopyUntil(v.End()); err != nil {
		return err
	}
	if err := in.tr.MarkSectionEnd(); err != nil {
		return err
	}
	if in.h.keepsUnmatched() {
		return in.tr.KeepSection()
	}
	in.h.log.Debug().
		Str("entry", name).
		Int("line", in.tr.LineNumber()).
		Bool("final", in.final).
		Msg("dropping entry without a matching string")
	return in.tr.RemoveSection()
}

// flat fills the messages of a CHROME_V3 root object. A member whose
// message does not hold the next pending placeholder is removed together
// with the comma and whitespace that follow it.
func (in *inserter) flat(n *structjson.Node) error {
	for _, m := range n.Members {
		if err := in.tr.CopyUntil(m.KeyPos - 1); err != nil {
			return err
		}
		msg, ok := chromeMessage(m.Value)
		if !ok {
			continue
		}
		in.tr.MarkSectionStart()

		s := in.pending()
		at := -1
		if s != nil {
			at = strings.Index(msg.Raw, s.TemplateReplacement())
		}
		var err error
		switch {
		case at < 0:
			err = in.removeMember(m)
		case s.Pluralized():
			err = in.plural(msg, s, at)
		case msg.Raw == s.TemplateReplacement():
			err = in.regular(msg, s)
		default:
			err = fmt.Errorf("entry %q: placeholder of %q is not the whole message", m.Key, s.Key())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (in *inserter) removeMember(m structjson.Member) error {
	src := in.tr.Source()
	end := m.Value.End()
	next := end
	for next < len(src) && isSpace(src[next]) {
		next++
	}
	if next < len(src) && src[next] == ',' {
		end = next + 1
		for end < len(src) && isSpace(src[end]) {
			end++
		}
	}
	if err := in.tr.CopyUntil(end); err != nil {
		return err
	}
	if err := in.tr.MarkSectionEnd(); err != nil {
		return err
	}
	in.h.log.Debug().
		Str("entry", m.Key).
		Int("line", in.tr.LineNumber()).
		Msg("dropping entry without a matching string")
	return in.tr.RemoveSection()
}
