package identity

import (
	"slices"
	"sync/atomic"
)

type Kind int

const (
	Personal Kind = iota
	Organizational
)

func (k Kind) String() string {
	if k == Organizational {
		return "organizational"
	}
	return "personal"
}

// Scope is the identity the viewer is acting as. It is a value: resolvers
// receive a copy read from the Switch at call time.
type Scope struct {
	Kind     Kind
	ViewerID string
	OrgID    string
	OrgName  string
	members  map[string]struct{}
}

func NewPersonal(viewerID string) Scope {
	return Scope{Kind: Personal, ViewerID: viewerID}
}

func NewOrganizational(viewerID, orgID, orgName string, memberIDs []string) Scope {
	s := Scope{Kind: Organizational, ViewerID: viewerID, OrgID: orgID, OrgName: orgName}
	return s.WithMembers(memberIDs)
}

// WithMembers returns a copy of s with its member set replaced.
func (s Scope) WithMembers(memberIDs []string) Scope {
	m := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	s.members = m
	return s
}

// IsMember reports whether id belongs to the active organization.
func (s Scope) IsMember(id string) bool {
	_, ok := s.members[id]
	return ok
}

// MemberIDs returns the member set in sorted order.
func (s Scope) MemberIDs() []string {
	out := make([]string, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// FetchOrgID is the organization identifier to pass to backend fetches, empty
// under personal scope.
func (s Scope) FetchOrgID() string {
	if s.Kind == Organizational {
		return s.OrgID
	}
	return ""
}

// Switch holds the process-wide active scope. Every reader calls Current so
// a scope switch is observed by the next resolution.
type Switch struct {
	cur atomic.Pointer[Scope]
}

func NewSwitch(initial Scope) *Switch {
	sw := &Switch{}
	sw.Set(initial)
	return sw
}

func (sw *Switch) Current() Scope {
	if p := sw.cur.Load(); p != nil {
		return *p
	}
	return Scope{}
}

func (sw *Switch) Set(s Scope) {
	sw.cur.Store(&s)
}

// UpdateMembers refreshes the member set of the active organizational scope.
// It is a no-op when the scope has since moved to another organization or to
// personal mode.
func (sw *Switch) UpdateMembers(orgID string, memberIDs []string) bool {
	for {
		old := sw.cur.Load()
		if old == nil || old.Kind != Organizational || old.OrgID != orgID {
			return false
		}
		next := old.WithMembers(memberIDs)
		if sw.cur.CompareAndSwap(old, &next) {
			return true
		}
	}
}
