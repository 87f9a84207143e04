package iface

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const All = "all"

// MaxPort is the highest port number accepted in a port or range.
const MaxPort = 1024

type portRange struct {
	prefix string
	first  int
	last   int
}

func (r portRange) String() string {
	if r.first == r.last {
		return joinPort(r.prefix, r.first)
	}
	return joinPort(r.prefix, r.first) + "-" + strconv.Itoa(r.last)
}

// Filter decides which interfaces are monitored.
// The zero value matches nothing; use ParseFilter.
type Filter struct {
	all     bool
	members map[string]struct{}
	ranges  []portRange
}

// ParseFilter parses "all" or a comma separated list such as
// "1/1/1-1/1/10,1/1/12,lag1". A range end may repeat the prefix
// ("1/1/1-1/1/10") or give only the last number ("1/1/1-10").
// Names without a slash, such as lag1 or vlan10, are exact members.
func ParseFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("interface list is empty")
	}
	if strings.EqualFold(s, All) {
		return &Filter{all: true}, nil
	}

	f := &Filter{members: make(map[string]struct{})}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return nil, fmt.Errorf("empty entry in interface list %q", s)
		}
		if !strings.Contains(entry, "-") {
			if err := validMember(entry); err != nil {
				return nil, err
			}
			f.members[entry] = struct{}{}
			continue
		}
		r, err := parseRange(entry)
		if err != nil {
			return nil, err
		}
		f.ranges = append(f.ranges, r)
	}
	return f, nil
}

func validMember(name string) error {
	if _, err := strconv.Atoi(name); err == nil || strings.Contains(name, "/") {
		_, n, err := splitPort(name)
		if err != nil {
			return err
		}
		if n > MaxPort {
			return fmt.Errorf("interface %q: port is above %d", name, MaxPort)
		}
		return nil
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '.' || c == '_') {
			return fmt.Errorf("invalid interface %q", name)
		}
	}
	return nil
}

func parseRange(entry string) (portRange, error) {
	bounds := strings.Split(entry, "-")
	if len(bounds) != 2 {
		return portRange{}, fmt.Errorf("invalid interface range %q", entry)
	}
	start, end := strings.TrimSpace(bounds[0]), strings.TrimSpace(bounds[1])

	prefix, first, err := splitPort(start)
	if err != nil {
		return portRange{}, fmt.Errorf("invalid interface range %q: %w", entry, err)
	}

	endPrefix, last, err := splitPort(end)
	if err != nil {
		return portRange{}, fmt.Errorf("invalid interface range %q: %w", entry, err)
	}
	// "1/1/1-10" shortens the end to its last number.
	if strings.Contains(end, "/") && endPrefix != prefix {
		return portRange{}, fmt.Errorf("invalid interface range %q: %s and %s are on different members", entry, start, end)
	}
	if first > last {
		return portRange{}, fmt.Errorf("invalid interface range %q: start is after end", entry)
	}
	if last > MaxPort {
		return portRange{}, fmt.Errorf("invalid interface range %q: port is above %d", entry, MaxPort)
	}
	return portRange{prefix: prefix, first: first, last: last}, nil
}

// splitPort splits "1/1/12" into "1/1" and 12.
func splitPort(name string) (string, int, error) {
	segments := strings.Split(name, "/")
	numbers := make([]int, len(segments))
	for i, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 || strconv.Itoa(n) != seg {
			return "", 0, fmt.Errorf("invalid interface %q", name)
		}
		numbers[i] = n
	}
	return strings.Join(segments[:len(segments)-1], "/"), numbers[len(numbers)-1], nil
}

func (f *Filter) All() bool {
	return f != nil && f.all
}

func (f *Filter) Match(name string) bool {
	if f == nil {
		return false
	}
	if f.all {
		return true
	}
	if _, ok := f.members[name]; ok {
		return true
	}
	if len(f.ranges) == 0 {
		return false
	}
	prefix, n, err := splitPort(name)
	if err != nil {
		return false
	}
	for _, r := range f.ranges {
		if r.prefix == prefix && n >= r.first && n <= r.last {
			return true
		}
	}
	return false
}

// Members lists every interface the filter matches, in port order.
// It returns nil for "all".
func (f *Filter) Members() []string {
	if f == nil || f.all {
		return nil
	}
	set := make(map[string]struct{}, len(f.members))
	for name := range f.members {
		set[name] = struct{}{}
	}
	for _, r := range f.ranges {
		for i := r.first; i <= r.last; i++ {
			set[joinPort(r.prefix, i)] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return lessPort(names[i], names[j])
	})
	return names
}

// String returns the filter in its list form, keeping ranges folded.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	if f.all {
		return All
	}

	type entry struct {
		key  string
		text string
	}
	entries := make([]entry, 0, len(f.members)+len(f.ranges))
	for name := range f.members {
		entries = append(entries, entry{key: name, text: name})
	}
	for _, r := range f.ranges {
		entries = append(entries, entry{key: joinPort(r.prefix, r.first), text: r.String()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].key == entries[j].key {
			return entries[i].text < entries[j].text
		}
		return lessPort(entries[i].key, entries[j].key)
	})

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}
	return strings.Join(texts, ",")
}

func joinPort(prefix string, n int) string {
	if prefix == "" {
		return strconv.Itoa(n)
	}
	return prefix + "/" + strconv.Itoa(n)
}

// lessPort orders ports numerically and puts named interfaces after them.
func lessPort(a, b string) bool {
	_, _, aErr := splitPort(a)
	_, _, bErr := splitPort(b)
	switch {
	case aErr != nil && bErr != nil:
		return a < b
	case aErr != nil:
		return false
	case bErr != nil:
		return true
	}

	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, _ := strconv.Atoi(as[i])
		bn, _ := strconv.Atoi(bs[i])
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}
