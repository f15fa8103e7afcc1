package models

import "time"

// Profile is the public identity of a user as shown in conversation lists.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// OrgMeta describes the organization owning the job behind a thread.
type OrgMeta struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo,omitempty"`
	OwnerID string `json:"owner_id,omitempty"` // teammate who posted the job
}

// RawConversation is one message-pair summary as returned by the listing
// fetch, before counterparty resolution.
type RawConversation struct {
	ThreadKey     string    `json:"thread_key"`
	SenderID      string    `json:"sender_id"`
	ReceiverID    string    `json:"receiver_id"`
	Sender        *Profile  `json:"sender,omitempty"`
	Receiver      *Profile  `json:"receiver,omitempty"`
	Org           *OrgMeta  `json:"org,omitempty"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// Listing is the conversation listing response.
type Listing struct {
	Conversations []RawConversation `json:"conversations"`
	MemberIDs     []string          `json:"member_ids,omitempty"`
}

// Conversation is a resolved entry of the conversation index.
type Conversation struct {
	ThreadKey          string    `json:"thread_key"`
	CounterpartyID     string    `json:"counterparty_id"`
	CounterpartyName   string    `json:"counterparty_name"`
	CounterpartyAvatar string    `json:"counterparty_avatar,omitempty"`
	LastMessage        string    `json:"last_message"`
	LastMessageAt      time.Time `json:"last_message_at"`
	UnreadCount        int       `json:"unread_count"`
	IsOrganization     bool      `json:"is_organization"`
	OrganizationName   string    `json:"organization_name,omitempty"`
	// Synthesized marks a placeholder built from a deep link.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Message is a single entry of a conversation timeline.
type Message struct {
	ID             string    `json:"id"`
	ThreadKey      string    `json:"thread_key"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	ParentID       string    `json:"parent_id,omitempty"`
	Starred        bool      `json:"starred,omitempty"`
	OrgID          string    `json:"org_id,omitempty"`
	OrgSenderLabel string    `json:"org_sender_label,omitempty"`
	// Pending is set on local optimistic entries only.
	Pending bool `json:"-"`
}

// Job is the job/project a thread key refers to.
type Job struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name,omitempty"`
	ClientAvatar string `json:"client_avatar,omitempty"`
	OrgID        string `json:"org_id,omitempty"`
	OrgName      string `json:"org_name,omitempty"`
	OrgLogo      string `json:"org_logo,omitempty"`
}

// Proposal is a freelancer's proposal on a job.
type Proposal struct {
	ID               string `json:"id"`
	JobID            string `json:"job_id"`
	FreelancerID     string `json:"freelancer_id"`
	FreelancerName   string `json:"freelancer_name,omitempty"`
	FreelancerAvatar string `json:"freelancer_avatar,omitempty"`
	Status           string `json:"status"`
}

const ProposalAccepted = "accepted"
