// Package response builds handler.Response values: plain text, JSON, status
// only, structured HTTP errors and WebSocket upgrades.
//
//	func listTopics(ctx handler.Context) handler.Response {
//		return response.JSON(map[string]any{"topics": reg.ListTopics()})
//	}
//
//	func createTopic(ctx handler.Context) handler.Response {
//		if name == "" {
//			return response.Error(response.ErrBadRequest.WithMessage("name is required"))
//		}
//		return response.JSONWithStatus(body, http.StatusCreated)
//	}
//
// # Errors
//
// HTTPError carries a status, a machine-readable code and a message.
// JSONErrorHandler renders any error returned from a response as
// {"code":..., "message":...}; errors implementing StatusCode() int keep their
// status and router panics become a bare 500.
//
// # WebSocket
//
//	response.WebSocket(func(ctx context.Context, conn *websocket.Conn) error {
//		for {
//			_, data, err := conn.ReadMessage()
//			if err != nil {
//				return nil
//			}
//			// ...
//		}
//	}, response.WithWSAllowAnyOrigin())
package response
