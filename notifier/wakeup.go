package notifier

import (
	"github.com/t2bot/snapshot-repo/redislib"
)

func wakeupChannel(queueName string) string {
	return "snap:queue:" + queueName
}

// SubscribeToWakeups fires whenever a job is sent to the named redis queue. Nil without redis.
func SubscribeToWakeups(queueName string) <-chan string {
	return redislib.Subscribe(wakeupChannel(queueName))
}
