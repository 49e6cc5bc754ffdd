package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"video_sharing_service/internal/media/domain"
	errprocess "video_sharing_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// VideoRepo definition video asset metadata store
type VideoRepo interface {
	// Create 寫入記錄並回填 Mongo 指派的 id
	Create(ctx context.Context, asset *domain.VideoAsset) error
	// GetByID 依 id 取得記錄，找不到回傳 ErrNotFound
	GetByID(ctx context.Context, id string) (*domain.VideoAsset, error)
	// Delete 依 id 刪除記錄，找不到回傳 ErrNotFound
	Delete(ctx context.Context, id string) error
}

type videoRepo struct {
	coll *mongo.Collection
}

// NewVideoRepo create a VideoRepo
func NewVideoRepo(db *mongo.Database) VideoRepo {
	return &videoRepo{
		coll: db.Collection("videos"),
	}
}

// Create - 寫入一筆影片記錄
// 記錄只在所有引用的 object 都上傳完成後寫入，讀到記錄即代表 object 存在
func (r *videoRepo) Create(ctx context.Context, asset *domain.VideoAsset) error {
	asset.CreatedAt = time.Now()
	res, err := r.coll.InsertOne(ctx, asset)
	if err != nil {
		return fmt.Errorf("insert video asset: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("unexpected inserted id type")
	}
	asset.ID = oid
	return nil
}

func (r *videoRepo) GetByID(ctx context.Context, id string) (*domain.VideoAsset, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// id 格式不合法視同找不到
		return nil, errprocess.ErrNotFound
	}

	filter := bson.M{"_id": oid}
	var asset domain.VideoAsset
	err = r.coll.FindOne(ctx, filter).Decode(&asset)
	if err == mongo.ErrNoDocuments {
		return nil, errprocess.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find video asset: %w", err)
	}
	return &asset, nil
}

func (r *videoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errprocess.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete video asset: %w", err)
	}
	if res.DeletedCount == 0 {
		return errprocess.ErrNotFound
	}
	return nil
}
