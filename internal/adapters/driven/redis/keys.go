package redis

import (
	"fmt"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// Every key lives under one namespace so that several deployments can
// share a Redis database.
const keyPrefix = "signpost:"

func lockKey(name string) string {
	return keyPrefix + "lock:" + name
}

// entitiesKey is a hash of id -> entity JSON for one kind.
func entitiesKey(kind domain.EntityKind) string {
	return fmt.Sprintf("%sentities:%s", keyPrefix, kind)
}

func metaKey(key string) string {
	return keyPrefix + "meta:" + key
}

// syncStatesKey is a hash of kind -> SyncState JSON.
func syncStatesKey() string {
	return keyPrefix + "sync_states"
}
