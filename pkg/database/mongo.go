package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoDB 建立 MongoDB 連線，connect 或 ping 失敗時間隔重試
func NewMongoDB(ctx context.Context, c Connection, dbName string) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(c.ConnectStr)

	var lastErr error
	for attempt := 1; attempt <= c.RetryCount; attempt++ {
		client, err := mongo.Connect(ctx, clientOpts)
		if err == nil {
			// 連上後還要 ping 過才算可用
			if err = client.Ping(ctx, readpref.Primary()); err == nil {
				log.Printf("MongoDB[%s] 連線成功 (嘗試 %d 次)", dbName, attempt)
				return &MongoDB{
					Client:   client,
					Database: client.Database(dbName),
				}, nil
			}
		}
		lastErr = err

		log.Printf("MongoDB[%s] 連線失敗 (嘗試 %d/%d): %v", dbName, attempt, c.RetryCount, err)
		if attempt < c.RetryCount {
			time.Sleep(c.RetryInterval)
		}
	}

	return nil, fmt.Errorf("無法連線 MongoDB[%s]，經過 %d 次嘗試: %v", dbName, c.RetryCount, lastErr)
}

// Close disenable mongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
