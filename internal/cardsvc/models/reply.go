package models

// Reply is the text a bot command hands back to the transport. Photo
// replies are sent during issuance, so a successful /get_card returns an
// empty Reply.
type Reply struct {
	Texts []string
}

func TextReply(text ...string) Reply {
	return Reply{Texts: text}
}

func (r Reply) Empty() bool {
	return len(r.Texts) == 0
}
