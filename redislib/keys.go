package redislib

import "strings"

// SnapshotTag groups every snapshot key (metadata, index, webhooks, locks) on one ring shard.
const SnapshotTag = "snap"

// TaggedKey joins parts under a {hash tag} so multi-key commands on the same tag stay on one shard.
func TaggedKey(tag string, parts ...string) string {
	return "{" + tag + "}:" + strings.Join(parts, ":")
}

func SnapshotKey(parts ...string) string {
	return TaggedKey(SnapshotTag, parts...)
}
