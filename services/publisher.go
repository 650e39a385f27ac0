//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_publisher.go -package=mocks
package services

// Publisher is the outbound side of the services: a fire-and-forget fan-out
// to every live subscriber of a topic. The runtime broker implements it.
type Publisher interface {
	Publish(topic, event string, body any)
}
