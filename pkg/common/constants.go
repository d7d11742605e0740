package common

const (
	RedisStreamStockHitEvents = "stock.hit.events"

	RedisStreamGroup    = "watcher-group"
	RedisStreamConsumer = "watcher-notifier"

	RedisKeyLastQuote = "last_quote:%s"
)
