package identity

import "github.com/ageniuscoder/gigchat/internal/models"

// Generic labels used when a profile is missing.
const (
	LabelUser       = "User"
	LabelFreelancer = "Freelancer"
)

// Counterparty is the identity shown for a conversation.
type Counterparty struct {
	ID               string
	Name             string
	Avatar           string
	IsOrganization   bool
	OrganizationName string
}

// Resolve determines the counterparty of raw under scope. It never fails:
// missing data degrades to generic labels.
func Resolve(raw models.RawConversation, scope Scope) Counterparty {
	if scope.Kind == Organizational {
		return resolveOrganizational(raw, scope)
	}
	return resolvePersonal(raw, scope)
}

func resolvePersonal(raw models.RawConversation, scope Scope) Counterparty {
	id, p := otherThan(raw, scope.ViewerID)
	cp := Counterparty{ID: id, Name: LabelUser}
	if p != nil {
		cp.Name = nameOr(p.Name, LabelUser)
		cp.Avatar = p.Avatar
	}
	// Org-owned job seen from outside the organization: show the org
	// rather than the teammate who wrote.
	if raw.Org != nil && raw.Org.OwnerID != scope.ViewerID {
		cp.IsOrganization = true
		cp.OrganizationName = raw.Org.Name
		cp.Name = nameOr(raw.Org.Name, cp.Name)
		if raw.Org.Logo != "" {
			cp.Avatar = raw.Org.Logo
		}
	}
	return cp
}

func resolveOrganizational(raw models.RawConversation, scope Scope) Counterparty {
	senderIn := scope.IsMember(raw.SenderID)
	receiverIn := scope.IsMember(raw.ReceiverID)

	var (
		id string
		p  *models.Profile
	)
	switch {
	case senderIn && !receiverIn:
		id, p = raw.ReceiverID, raw.Receiver
	case receiverIn && !senderIn:
		id, p = raw.SenderID, raw.Sender
	default:
		// Stale membership or a thread between teammates.
		id, p = otherThan(raw, scope.ViewerID)
		cp := Counterparty{ID: id, Name: LabelUser}
		if p != nil {
			cp.Name = nameOr(p.Name, LabelUser)
			cp.Avatar = p.Avatar
		}
		return cp
	}

	cp := Counterparty{
		ID:               id,
		Name:             LabelFreelancer,
		IsOrganization:   true,
		OrganizationName: scope.OrgName,
	}
	if raw.Org != nil && raw.Org.Name != "" {
		cp.OrganizationName = raw.Org.Name
	}
	if p != nil {
		cp.Name = nameOr(p.Name, LabelFreelancer)
		cp.Avatar = p.Avatar
	}
	return cp
}

func otherThan(raw models.RawConversation, viewerID string) (string, *models.Profile) {
	if raw.SenderID != viewerID && raw.SenderID != "" {
		return raw.SenderID, raw.Sender
	}
	return raw.ReceiverID, raw.Receiver
}

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

// IsMine reports whether msg was sent by the viewer's side under scope.
func IsMine(msg models.Message, scope Scope) bool {
	if msg.SenderID == scope.ViewerID {
		return true
	}
	return scope.Kind == Organizational && scope.IsMember(msg.SenderID)
}
