package domain

import (
	"encoding/binary"
	"strconv"
)

// ClaimTopic identifies a kind of attested claim (KYC, AML, ...).
type ClaimTopic uint64

const (
	TopicKYC           ClaimTopic = 1
	TopicAML           ClaimTopic = 2
	TopicAccreditation ClaimTopic = 3
	TopicResidency     ClaimTopic = 4
)

func (t ClaimTopic) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// Bytes32 returns the topic as a left-padded 32-byte word, the layout used
// when topics are hashed into claim signatures.
func (t ClaimTopic) Bytes32() []byte {
	out := make([]byte, 32)
	binary.BigEndian.PutUint64(out[24:], uint64(t))
	return out
}

// UniqueTopics returns topics with duplicates removed, first occurrence wins.
func UniqueTopics(topics []ClaimTopic) []ClaimTopic {
	seen := make(map[ClaimTopic]struct{}, len(topics))
	out := make([]ClaimTopic, 0, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
