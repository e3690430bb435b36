package workflow

import (
	"fmt"
	"strings"
)

// The text channel's topic is the durable link between a resource pair and
// its member: it carries the member ID followed by the voice channel ID.
// The ResourcePair table is authoritative for pairs this bot creates, but
// teardown still honors the topic so pairs provisioned by the previous bot
// are found.

// pairTopic builds the topic for a resource-pair text channel.
func pairTopic(memberID, voiceChannelID string) string {
	return fmt.Sprintf("Restricted channel. %s %s (Please do not change this)", memberID, voiceChannelID)
}

// topicReferences reports whether a channel topic links to the member.
func topicReferences(topic, memberID string) bool {
	for _, field := range strings.Fields(topic) {
		if field == memberID {
			return true
		}
	}
	return false
}

// voiceIDFromTopic extracts the paired voice channel ID from a topic, the
// token following the member ID. Returns "" if the topic does not parse.
func voiceIDFromTopic(topic, memberID string) string {
	fields := strings.Fields(topic)
	for i, field := range fields {
		if field == memberID && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// textChannelName builds the resource-pair text channel name. The platform
// rejects some usernames as channel names, in which case the caller falls
// back to the numeric ID form.
func textChannelName(name string) string {
	return fmt.Sprintf("⛔┃%s-restricted", name)
}

// voiceChannelName builds the final name for the paired voice channel.
func voiceChannelName(name string) string {
	return fmt.Sprintf("%s-restricted", name)
}
