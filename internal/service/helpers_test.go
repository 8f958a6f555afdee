package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/database"
)

type fixture struct {
	db   *gorm.DB
	ctx  context.Context
	feed FeedService
	rel  RelationshipService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	feed := NewFeedService(
		repository.NewPostRepository(db),
		repository.NewGroupRepository(db),
		repository.NewUserRepository(db),
		repository.NewCommentRepository(db),
		repository.NewFollowRepository(db),
		10,
	)
	return &fixture{
		db:   db,
		ctx:  context.Background(),
		feed: feed,
		rel:  NewRelationshipService(db, repository.NewUserRepository(db)),
	}
}

func (f *fixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Password: "x"}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, f.db.Create(g).Error)
	return g
}

func (f *fixture) post(t *testing.T, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, f.db.Omit("Author", "Group").Create(p).Error)
	return p
}

// posts 批量创建 n 条同一时间戳的帖子
func (f *fixture) posts(t *testing.T, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	at := time.Now().Truncate(time.Second)
	res := make([]*model.Post, n)
	for i := range res {
		p := &model.Post{Text: fmt.Sprintf("post %d", i), AuthorID: author.ID, CreatedAt: at}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, f.db.Omit("Author", "Group").Create(p).Error)
		res[i] = p
	}
	return res
}

func ids(posts []*model.Post) []uint {
	res := make([]uint, len(posts))
	for i, p := range posts {
		res[i] = p.ID
	}
	return res
}
