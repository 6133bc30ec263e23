package chatlog

import "github.com/adi-253/qqchat/internal/models"

// Merge overlays revocation and reaction state onto a page of messages.
// Revoked messages become tombstones: id, author, sequence and time stay,
// text and attachments are dropped. Reactions are attached either way.
func Merge(msgs []models.Message, revoked RevokedSet, reactions ReactionMap) []models.MessageView {
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := models.MessageView{
			Message:   m,
			Revoked:   revoked.Has(m.ID),
			Reactions: reactions.Summarize(m.ID),
		}
		if v.Revoked {
			v.Text = ""
			v.ImagePaths = nil
			v.ImageDataURLs = nil
		}
		views = append(views, v)
	}
	return views
}
