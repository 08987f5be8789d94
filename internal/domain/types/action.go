package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionMQTTConnected = "mqtt_connected"
	ActionMQTTLost      = "mqtt_connection_lost"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"

	ActionTripStarted       = "trip_started"
	ActionTripStopped       = "trip_stopped"
	ActionTripSaved         = "trip_saved"
	ActionTripSaveFailed    = "trip_save_failed"
	ActionTripResubmitted   = "trip_resubmitted"
	ActionFixRejected       = "fix_rejected"
	ActionDistanceFallback  = "distance_fallback"
	ActionGeocodeFallback   = "geocode_fallback"
	ActionPositionSourceErr = "position_source_failed"
)
