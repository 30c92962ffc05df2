package broker

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/pubsub/core/handler"
	"github.com/dmitrymomot/pubsub/core/protocol"
	"github.com/dmitrymomot/pubsub/core/pubsub"
	"github.com/dmitrymomot/pubsub/core/response"
	"github.com/dmitrymomot/pubsub/core/router"
)

// TopicsResponse lists topics.
type TopicsResponse struct {
	Topics []pubsub.TopicInfo `json:"topics"`
}

// StatsResponse reports per-topic counters.
type StatsResponse struct {
	Topics map[string]pubsub.TopicStats `json:"topics"`
}

// decodeJSON reads the request body into v. Oversized bodies map to 413 and
// malformed ones to 400.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return response.ErrRequestEntityTooLarge.WithDetails(map[string]any{"limit": tooLarge.Limit})
		}
		return response.ErrBadRequest.WithMessage("invalid JSON body").WithError(err)
	}
	return nil
}

func (a *App) health(*router.Context) handler.Response {
	return response.JSON(protocol.HealthResponse{
		UptimeSec:   int64(a.Uptime().Seconds()),
		Topics:      a.registry.TopicCount(),
		Subscribers: a.registry.TotalSubscriberCount(),
	})
}

func (a *App) stats(*router.Context) handler.Response {
	return response.JSON(StatsResponse{Topics: a.registry.TopicStats()})
}

func (a *App) metricsHandler(*router.Context) handler.Response {
	return response.Handler(a.metrics.Handler())
}

func (a *App) listTopics(*router.Context) handler.Response {
	return response.JSON(TopicsResponse{Topics: a.registry.ListTopics()})
}

func (a *App) createTopic(ctx *router.Context) handler.Response {
	var req protocol.CreateTopicRequest
	if err := decodeJSON(ctx.Request(), &req); err != nil {
		return response.Error(err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return response.JSONWithStatus(protocol.ErrorResponse{Error: "name is required"}, http.StatusBadRequest)
	}

	if _, err := a.registry.CreateTopic(name); err != nil {
		if errors.Is(err, pubsub.ErrTopicExists) {
			return response.JSONWithStatus(protocol.ErrorResponse{Error: "topic already exists", Topic: name}, http.StatusConflict)
		}
		return response.Error(err)
	}
	return response.JSONWithStatus(protocol.TopicStatusResponse{Status: "created", Topic: name}, http.StatusCreated)
}

func (a *App) deleteTopic(ctx *router.Context) handler.Response {
	name := ctx.Param("name")
	if err := a.registry.DeleteTopic(name); err != nil {
		if errors.Is(err, pubsub.ErrTopicNotFound) {
			return response.JSONWithStatus(protocol.ErrorResponse{Error: "topic not found", Topic: name}, http.StatusNotFound)
		}
		return response.Error(err)
	}
	return response.JSON(protocol.TopicStatusResponse{Status: "deleted", Topic: name})
}

func (a *App) subscribe(ctx *router.Context) handler.Response {
	var req protocol.SubscribeRequest
	if err := decodeJSON(ctx.Request(), &req); err != nil {
		return response.Error(err)
	}

	if strings.TrimSpace(req.Topic) == "" {
		return response.JSONWithStatus(protocol.SubscribeResponse{Topic: req.Topic, Error: "topic is required"}, http.StatusBadRequest)
	}

	id := req.SubscriberID
	if id == "" {
		id = pubsub.NewSubscriberID()
	}

	sub, err := a.registry.SubscribeExisting(req.Topic, id)
	if err != nil {
		if errors.Is(err, pubsub.ErrTopicNotFound) {
			return response.JSONWithStatus(protocol.SubscribeResponse{Topic: req.Topic, Error: "topic not found"}, http.StatusNotFound)
		}
		return response.Error(err)
	}

	resp := protocol.SubscribeResponse{OK: true, Topic: req.Topic, SubscriberID: sub.ID()}
	if req.LastN > 0 {
		resp.Replay = []protocol.Frame{}
		if topic, ok := a.registry.GetTopic(req.Topic); ok {
			for _, msg := range topic.GetLastN(req.LastN) {
				resp.Replay = append(resp.Replay, protocol.NewEvent(req.Topic, msg.ID(), msg.Payload()))
			}
		}
	}
	return response.JSON(resp)
}

func (a *App) unsubscribe(ctx *router.Context) handler.Response {
	var req protocol.SubscribeRequest
	if err := decodeJSON(ctx.Request(), &req); err != nil {
		return response.Error(err)
	}

	if strings.TrimSpace(req.Topic) == "" || req.SubscriberID == "" {
		return response.JSONWithStatus(protocol.SubscribeResponse{
			Topic:        req.Topic,
			SubscriberID: req.SubscriberID,
			Error:        "topic and subscriber_id are required",
		}, http.StatusBadRequest)
	}

	if err := a.registry.Unsubscribe(req.Topic, req.SubscriberID); err != nil {
		return response.JSONWithStatus(protocol.SubscribeResponse{
			Topic:        req.Topic,
			SubscriberID: req.SubscriberID,
			Error:        err.Error(),
		}, http.StatusNotFound)
	}
	return response.JSON(protocol.SubscribeResponse{OK: true, Topic: req.Topic, SubscriberID: req.SubscriberID})
}

func (a *App) publish(ctx *router.Context) handler.Response {
	var req protocol.PublishRequest
	if err := decodeJSON(ctx.Request(), &req); err != nil {
		return response.Error(err)
	}

	if strings.TrimSpace(req.Topic) == "" {
		return response.JSONWithStatus(protocol.ErrorResponse{Error: "publish requires topic"}, http.StatusBadRequest)
	}
	if req.Message == nil || req.Message.Payload == nil {
		return response.JSONWithStatus(protocol.ErrorResponse{
			Error: "publish requires message object with id and payload",
			Topic: req.Topic,
		}, http.StatusBadRequest)
	}

	msg, err := a.registry.Publish(req.Topic, req.Message.Payload, pubsub.WithMessageID(req.Message.ID))
	if err != nil {
		if errors.Is(err, pubsub.ErrTopicNotFound) {
			return response.JSONWithStatus(protocol.ErrorResponse{Error: "topic not found", Topic: req.Topic}, http.StatusNotFound)
		}
		return response.Error(err)
	}

	return response.JSON(protocol.PublishResponse{
		OK:      true,
		Topic:   req.Topic,
		Message: protocol.EventMessage{ID: msg.ID(), Payload: msg.Payload()},
	})
}
