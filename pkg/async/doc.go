// Package async runs background tasks and exposes their completion as a future.
//
//	f := async.Exec(ctx, queue, func(ctx context.Context, q chan Job) error {
//		for {
//			select {
//			case <-ctx.Done():
//				return nil
//			case job := <-q:
//				job.Run()
//			}
//		}
//	})
//
//	cancel()
//	if err := f.AwaitWithTimeout(time.Second); errors.Is(err, async.ErrTimeout) {
//		log.Println("worker did not stop")
//	}
package async
