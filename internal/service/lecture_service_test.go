package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/scheduling"
)

// 固定时钟：2026-03-10（周二）10:30:15 UTC
var testNow = time.Date(2026, 3, 10, 10, 30, 15, 0, time.UTC)

const (
	testToday     = "2026-03-10"
	testTomorrow  = "2026-03-11"
	testYesterday = "2026-03-09"
)

// ── 测试辅助 ──

type lectureFixture struct {
	svc         LectureService
	repos       *mockRepos
	locker      *mockLocker
	validator   *scheduling.Validator
	adminID     string
	courseID    string
	instructorA string
	instructorB string
}

func setupLectureService(t *testing.T) *lectureFixture {
	t.Helper()

	repo, repos := newMockRepository()
	ctx := context.Background()

	admin := &model.User{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	a := &model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleInstructor}
	b := &model.User{Name: "Bob", Email: "bob@example.com", Role: model.RoleInstructor}
	for _, u := range []*model.User{admin, a, b} {
		_ = repos.users.Create(ctx, u)
	}
	course := &model.Course{Name: "Go Basics", Level: "Beginner", Description: "Intro to Go"}
	_ = repos.courses.Create(ctx, course)

	validator := scheduling.NewValidator(scheduling.FixedClock(testNow), time.UTC)
	locker := newMockLocker()
	svc := NewLectureService(repo, validator, locker, time.Second, zap.NewNop())

	return &lectureFixture{
		svc:         svc,
		repos:       repos,
		locker:      locker,
		validator:   validator,
		adminID:     admin.UserID,
		courseID:    course.CourseID,
		instructorA: a.UserID,
		instructorB: b.UserID,
	}
}

func (f *lectureFixture) createReq(instructorID, date, start, end string) *dto.CreateLectureRequest {
	return &dto.CreateLectureRequest{
		Course:     f.courseID,
		Instructor: instructorID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
	}
}

func (f *lectureFixture) mustCreate(t *testing.T, instructorID, date, start, end string) *dto.LectureResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.createReq(instructorID, date, start, end), f.adminID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	return resp
}

// ────────────────────── Create ──────────────────────

func TestLectureService_Create_Success(t *testing.T) {
	f := setupLectureService(t)

	req := f.createReq(f.instructorA, testTomorrow, "09:00", "10:00")
	req.BatchName = "  Morning A "
	resp, err := f.svc.Create(context.Background(), req, f.adminID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if resp.Date != testTomorrow {
		t.Errorf("期望 date=%s，实际=%s", testTomorrow, resp.Date)
	}
	if resp.Status != model.LectureStatusScheduled {
		t.Errorf("期望 status=scheduled，实际=%s", resp.Status)
	}
	if resp.BatchName != "Morning A" {
		t.Errorf("期望 batchName 去除首尾空白，实际=%q", resp.BatchName)
	}
	if resp.Course == nil || resp.Course.Name != "Go Basics" || resp.Course.Level != "Beginner" {
		t.Errorf("期望返回课程展示字段，实际=%+v", resp.Course)
	}
	if resp.Instructor == nil || resp.Instructor.Name != "Alice" || resp.Instructor.Email != "alice@example.com" {
		t.Errorf("期望返回讲师展示字段，实际=%+v", resp.Instructor)
	}
	if resp.Version != 1 {
		t.Errorf("期望 version=1，实际=%d", resp.Version)
	}

	stored := f.repos.lectures.lectures[resp.ID]
	if !stored.LectureDate.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("存储日期应为零点，实际=%v", stored.LectureDate)
	}
	if len(f.locker.acquired) != 1 || len(f.locker.released) != 1 {
		t.Errorf("期望加锁并释放一次，acquired=%v released=%v", f.locker.acquired, f.locker.released)
	}
}

func TestLectureService_Create_MissingFields(t *testing.T) {
	f := setupLectureService(t)

	tests := []struct {
		name   string
		mutate func(r *dto.CreateLectureRequest)
	}{
		{"缺少课程", func(r *dto.CreateLectureRequest) { r.Course = "" }},
		{"缺少讲师", func(r *dto.CreateLectureRequest) { r.Instructor = "  " }},
		{"缺少日期", func(r *dto.CreateLectureRequest) { r.Date = "" }},
		{"缺少开始时间", func(r *dto.CreateLectureRequest) { r.StartTime = "" }},
		{"缺少结束时间", func(r *dto.CreateLectureRequest) { r.EndTime = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createReq(f.instructorA, testTomorrow, "09:00", "10:00")
			tt.mutate(req)
			_, err := f.svc.Create(context.Background(), req, f.adminID)
			if !errors.Is(err, ErrMissingLectureFields) {
				t.Errorf("期望 ErrMissingLectureFields，实际: %v", err)
			}
		})
	}

	if len(f.repos.lectures.lectures) != 0 {
		t.Error("校验失败时不应写入任何课节")
	}
}

func TestLectureService_Create_References(t *testing.T) {
	f := setupLectureService(t)

	tests := []struct {
		name       string
		course     string
		instructor string
		wantErr    error
	}{
		{"课程 ID 格式错误", "not-a-uuid", f.instructorA, ErrInvalidCourseID},
		{"课程不存在", uuid.NewString(), f.instructorA, ErrCourseNotFound},
		{"讲师 ID 格式错误", f.courseID, "abc", ErrInvalidInstructorID},
		{"讲师不存在", f.courseID, uuid.NewString(), ErrInstructorNotFound},
		{"用户不是讲师", f.courseID, f.adminID, ErrInstructorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createReq(tt.instructor, testTomorrow, "09:00", "10:00")
			req.Course = tt.course
			_, err := f.svc.Create(context.Background(), req, f.adminID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLectureService_Create_Temporal(t *testing.T) {
	f := setupLectureService(t)

	tests := []struct {
		name    string
		date    string
		start   string
		end     string
		wantErr error
	}{
		{"日期无法解析", "next tuesday", "09:00", "10:00", scheduling.ErrInvalidDate},
		{"昨天", testYesterday, "09:00", "10:00", scheduling.ErrPastDate},
		{"时间格式错误", testTomorrow, "9:00", "10:00", scheduling.ErrInvalidTimeFormat},
		{"24 点非法", testTomorrow, "23:00", "24:00", scheduling.ErrInvalidTimeFormat},
		{"开始不早于结束", testTomorrow, "10:00", "10:00", scheduling.ErrStartNotBeforeEnd},
		{"今天开始时间已过", testToday, "10:00", "11:00", scheduling.ErrStartTimePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, tt.date, tt.start, tt.end), f.adminID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}

	// 时间类错误统一归类
	_, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "11:00", "10:00"), f.adminID)
	if !errors.Is(err, scheduling.ErrInvalidTiming) {
		t.Errorf("期望归类为 ErrInvalidTiming，实际: %v", err)
	}

	// 今天且尚未开始：允许
	if _, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testToday, "10:30", "11:00"), f.adminID); err != nil {
		t.Errorf("今天 10:30-11:00 应成功: %v", err)
	}
}

func TestLectureService_Create_Conflict(t *testing.T) {
	f := setupLectureService(t)
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	_, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "14:00", "15:00"), f.adminID)

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望 ConflictError，实际: %v", err)
	}
	if conflictErr.Conflict == nil || conflictErr.Conflict.ID != first.ID {
		t.Errorf("冲突记录应为第一节课，实际=%+v", conflictErr.Conflict)
	}
	if conflictErr.Conflict.Course == nil || conflictErr.Conflict.Course.Name != "Go Basics" {
		t.Error("冲突记录应包含课程展示字段")
	}
	want := "Instructor already has a lecture scheduled on Wed Mar 11 2026"
	if conflictErr.Error() != want {
		t.Errorf("期望 %q，实际 %q", want, conflictErr.Error())
	}
	if len(f.repos.lectures.lectures) != 1 {
		t.Errorf("冲突时不应写入，实际课节数=%d", len(f.repos.lectures.lectures))
	}
	if len(f.locker.held) != 0 {
		t.Error("冲突返回后锁应已释放")
	}
}

func TestLectureService_Create_CancelledDoesNotConflict(t *testing.T) {
	f := setupLectureService(t)
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")
	f.repos.lectures.lectures[first.ID].Status = model.LectureStatusCancelled

	if _, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "14:00", "15:00"), f.adminID); err != nil {
		t.Errorf("已取消的课节不应构成冲突: %v", err)
	}
}

func TestLectureService_Create_UniqueIndexRace(t *testing.T) {
	f := setupLectureService(t)
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	// 预检看不到第一节课，写入时被唯一索引拦截
	f.repos.lectures.hideNextFinds = 1
	_, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "14:00", "15:00"), f.adminID)

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望唯一索引冲突被转换为 ConflictError，实际: %v", err)
	}
	if conflictErr.Conflict == nil || conflictErr.Conflict.ID != first.ID {
		t.Errorf("应重新读取冲突记录，实际=%+v", conflictErr.Conflict)
	}
	if len(f.repos.lectures.lectures) != 1 {
		t.Error("唯一索引拦截后不应存在第二节课")
	}
}

func TestLectureService_Create_SlotLock(t *testing.T) {
	t.Run("锁被占用", func(t *testing.T) {
		f := setupLectureService(t)
		f.locker.deny = true

		_, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "09:00", "10:00"), f.adminID)
		if !errors.Is(err, ErrInstructorSlotBusy) {
			t.Errorf("期望 ErrInstructorSlotBusy，实际: %v", err)
		}
	})

	t.Run("Redis 异常时降级", func(t *testing.T) {
		f := setupLectureService(t)
		f.locker.failWith = errors.New("connection refused")

		if _, err := f.svc.Create(context.Background(), f.createReq(f.instructorA, testTomorrow, "09:00", "10:00"), f.adminID); err != nil {
			t.Errorf("锁服务异常时应降级执行: %v", err)
		}
	})

	t.Run("锁键按讲师和日期", func(t *testing.T) {
		f := setupLectureService(t)
		f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

		want := "lecture:" + f.instructorA + ":" + testTomorrow
		if len(f.locker.acquired) != 1 || f.locker.acquired[0] != want {
			t.Errorf("期望锁键 %s，实际=%v", want, f.locker.acquired)
		}
	})
}

func TestLectureService_Create_WithoutLocker(t *testing.T) {
	repo, repos := newMockRepository()
	ctx := context.Background()
	a := &model.User{Name: "Alice", Email: "alice@example.com", Role: model.RoleInstructor}
	_ = repos.users.Create(ctx, a)
	course := &model.Course{Name: "Go", Level: "L1", Description: "d"}
	_ = repos.courses.Create(ctx, course)

	validator := scheduling.NewValidator(scheduling.FixedClock(testNow), time.UTC)
	svc := NewLectureService(repo, validator, nil, 0, zap.NewNop())

	req := &dto.CreateLectureRequest{Course: course.CourseID, Instructor: a.UserID, Date: testTomorrow, StartTime: "09:00", EndTime: "10:00"}
	if _, err := svc.Create(ctx, req, "admin"); err != nil {
		t.Fatalf("无锁时 Create 应成功: %v", err)
	}
	if _, err := svc.Create(ctx, req, "admin"); err == nil {
		t.Fatal("无锁时仍应检测冲突")
	}
}

// ────────────────────── GetByID / Delete ──────────────────────

func TestLectureService_GetByID(t *testing.T) {
	f := setupLectureService(t)
	created := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	got, err := f.svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID 不匹配: %s vs %s", got.ID, created.ID)
	}

	if _, err := f.svc.GetByID(context.Background(), "123"); !errors.Is(err, ErrInvalidLectureID) {
		t.Errorf("期望 ErrInvalidLectureID，实际: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), uuid.NewString()); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("期望 ErrLectureNotFound，实际: %v", err)
	}
}

func TestLectureService_Delete(t *testing.T) {
	f := setupLectureService(t)
	created := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	if err := f.svc.Delete(context.Background(), "bad", f.adminID); !errors.Is(err, ErrInvalidLectureID) {
		t.Errorf("期望 ErrInvalidLectureID，实际: %v", err)
	}
	if err := f.svc.Delete(context.Background(), uuid.NewString(), f.adminID); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("期望 ErrLectureNotFound，实际: %v", err)
	}
	if err := f.svc.Delete(context.Background(), created.ID, f.adminID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), created.ID); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("删除后应查不到，实际: %v", err)
	}
}

// ────────────────────── Update ──────────────────────

func TestLectureService_Update_SameDateNoSelfConflict(t *testing.T) {
	f := setupLectureService(t)
	created := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	resp, err := f.svc.Update(context.Background(), created.ID, &dto.UpdateLectureRequest{
		Date:      dto.Some(testTomorrow),
		StartTime: dto.Some("09:30"),
	}, f.adminID)
	if err != nil {
		t.Fatalf("更新为相同日期不应自冲突: %v", err)
	}
	if resp.StartTime != "09:30" || resp.EndTime != "10:00" {
		t.Errorf("期望 09:30-10:00，实际 %s-%s", resp.StartTime, resp.EndTime)
	}
	if resp.Version != 2 {
		t.Errorf("期望 version=2，实际=%d", resp.Version)
	}
}

func TestLectureService_Update_PartialFields(t *testing.T) {
	f := setupLectureService(t)
	req := f.createReq(f.instructorA, testTomorrow, "09:00", "10:00")
	req.BatchName = "Batch 1"
	created, err := f.svc.Create(context.Background(), req, f.adminID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	t.Run("空字符串视为未提供", func(t *testing.T) {
		resp, err := f.svc.Update(context.Background(), created.ID, &dto.UpdateLectureRequest{
			Date:      dto.Some(""),
			StartTime: dto.Some(""),
			Status:    dto.Some(""),
		}, f.adminID)
		if err != nil {
			t.Fatalf("Update 应成功: %v", err)
		}
		if resp.Date != testTomorrow || resp.StartTime != "09:00" || resp.Status != model.LectureStatusScheduled {
			t.Errorf("未提供字段应保持不变，实际=%+v", resp)
		}
		if resp.BatchName != "Batch 1" {
			t.Errorf("未提供 batchName 时应保持不变，实际=%q", resp.BatchName)
		}
	})

	t.Run("batchName 空字符串清空", func(t *testing.T) {
		resp, err := f.svc.Update(context.Background(), created.ID, &dto.UpdateLectureRequest{
			BatchName: dto.Some(""),
		}, f.adminID)
		if err != nil {
			t.Fatalf("Update 应成功: %v", err)
		}
		if resp.BatchName != "" {
			t.Errorf("batchName 应被清空，实际=%q", resp.BatchName)
		}
	})

	t.Run("instructor null 取消分配", func(t *testing.T) {
		resp, err := f.svc.Update(context.Background(), created.ID, &dto.UpdateLectureRequest{
			Instructor: dto.Null[string](),
		}, f.adminID)
		if err != nil {
			t.Fatalf("Update 应成功: %v", err)
		}
		if resp.Instructor != nil {
			t.Errorf("讲师应被取消分配，实际=%+v", resp.Instructor)
		}
	})
}

func TestLectureService_Update_Validation(t *testing.T) {
	f := setupLectureService(t)
	created := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	tests := []struct {
		name    string
		req     dto.UpdateLectureRequest
		wantErr error
	}{
		{"非法状态", dto.UpdateLectureRequest{Status: dto.Some("postponed")}, ErrInvalidLectureStatus},
		{"过去日期", dto.UpdateLectureRequest{Date: dto.Some(testYesterday)}, scheduling.ErrPastDate},
		{"日期无法解析", dto.UpdateLectureRequest{Date: dto.Some("tomorrow")}, scheduling.ErrInvalidDate},
		{"开始晚于原结束时间", dto.UpdateLectureRequest{StartTime: dto.Some("12:00")}, scheduling.ErrStartNotBeforeEnd},
		{"课程不存在", dto.UpdateLectureRequest{Course: dto.Some(uuid.NewString())}, ErrCourseNotFound},
		{"讲师格式错误", dto.UpdateLectureRequest{Instructor: dto.Some("x")}, ErrInvalidInstructorID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Update(context.Background(), created.ID, &req, f.adminID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}

	stored := f.repos.lectures.lectures[created.ID]
	if stored.Version != 1 || stored.StartTime != "09:00" {
		t.Errorf("校验失败时不应写入，实际 version=%d start=%s", stored.Version, stored.StartTime)
	}

	if _, err := f.svc.Update(context.Background(), uuid.NewString(), &dto.UpdateLectureRequest{}, f.adminID); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("期望 ErrLectureNotFound，实际: %v", err)
	}
}

func TestLectureService_Update_Conflict(t *testing.T) {
	f := setupLectureService(t)
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")
	second := f.mustCreate(t, f.instructorB, testTomorrow, "09:00", "10:00")

	// 把第二节课改派给 A → 冲突
	_, err := f.svc.Update(context.Background(), second.ID, &dto.UpdateLectureRequest{
		Instructor: dto.Some(f.instructorA),
	}, f.adminID)
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("期望 ConflictError，实际: %v", err)
	}
	if conflictErr.Conflict.ID != first.ID {
		t.Errorf("冲突记录应为第一节课，实际=%s", conflictErr.Conflict.ID)
	}

	// 同时取消则允许
	if _, err := f.svc.Update(context.Background(), second.ID, &dto.UpdateLectureRequest{
		Instructor: dto.Some(f.instructorA),
		Status:     dto.Some(model.LectureStatusCancelled),
	}, f.adminID); err != nil {
		t.Errorf("已取消的课节不参与冲突检测: %v", err)
	}

	// 重新改回 scheduled → 冲突
	_, err = f.svc.Update(context.Background(), second.ID, &dto.UpdateLectureRequest{
		Status: dto.Some(model.LectureStatusScheduled),
	}, f.adminID)
	if !errors.As(err, &conflictErr) {
		t.Errorf("恢复为 scheduled 时应检测冲突，实际: %v", err)
	}
}

func TestLectureService_Update_PastLectureStatusOnly(t *testing.T) {
	f := setupLectureService(t)

	past := &model.Lecture{
		CourseID:     f.courseID,
		InstructorID: &f.instructorA,
		LectureDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:    "09:00",
		EndTime:      "10:00",
		Status:       model.LectureStatusScheduled,
	}
	_ = f.repos.lectures.Create(context.Background(), past)

	resp, err := f.svc.Update(context.Background(), past.LectureID, &dto.UpdateLectureRequest{
		Status: dto.Some(model.LectureStatusCompleted),
	}, f.adminID)
	if err != nil {
		t.Fatalf("仅修改状态时不应做时间校验: %v", err)
	}
	if resp.Status != model.LectureStatusCompleted {
		t.Errorf("期望 status=completed，实际=%s", resp.Status)
	}
}

func TestLectureService_Update_RescheduleCancelledPastLecture(t *testing.T) {
	f := setupLectureService(t)

	past := &model.Lecture{
		CourseID:     f.courseID,
		InstructorID: &f.instructorA,
		LectureDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:    "09:00",
		EndTime:      "10:00",
		Status:       model.LectureStatusCancelled,
	}
	_ = f.repos.lectures.Create(context.Background(), past)

	_, err := f.svc.Update(context.Background(), past.LectureID, &dto.UpdateLectureRequest{
		Status: dto.Some(model.LectureStatusScheduled),
	}, f.adminID)
	if !errors.Is(err, scheduling.ErrPastDate) {
		t.Fatalf("过去日期的课节重新排课应返回 ErrPastDate，实际: %v", err)
	}
	if got := f.repos.lectures.lectures[past.LectureID].Status; got != model.LectureStatusCancelled {
		t.Errorf("失败后状态应保持 cancelled，实际=%s", got)
	}

	// 同时改到未来日期则允许
	resp, err := f.svc.Update(context.Background(), past.LectureID, &dto.UpdateLectureRequest{
		Status: dto.Some(model.LectureStatusScheduled),
		Date:   dto.Some(testTomorrow),
	}, f.adminID)
	if err != nil {
		t.Fatalf("改到未来日期后重新排课应成功: %v", err)
	}
	if resp.Status != model.LectureStatusScheduled || resp.Date != testTomorrow {
		t.Errorf("期望 scheduled@%s，实际=%s@%s", testTomorrow, resp.Status, resp.Date)
	}
}

func TestLectureService_Update_StaleVersion(t *testing.T) {
	f := setupLectureService(t)
	created := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")

	f.repos.lectures.staleOnUpdate = true
	_, err := f.svc.Update(context.Background(), created.ID, &dto.UpdateLectureRequest{
		BatchName: dto.Some("B"),
	}, f.adminID)
	if !errors.Is(err, ErrLectureModified) {
		t.Errorf("期望 ErrLectureModified，实际: %v", err)
	}
}

// ────────────────────── Assign ──────────────────────

func TestLectureService_Assign_MissingFieldsBeforeLookup(t *testing.T) {
	f := setupLectureService(t)

	_, err := f.svc.Assign(context.Background(), uuid.NewString(), &dto.AssignLectureRequest{Date: testTomorrow}, f.adminID)
	if !errors.Is(err, ErrMissingAssignFields) {
		t.Errorf("缺少字段应先于课节查询返回 ErrMissingAssignFields，实际: %v", err)
	}
}

func TestLectureService_Assign(t *testing.T) {
	f := setupLectureService(t)
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")
	second := f.mustCreate(t, f.instructorB, "2026-03-12", "14:00", "15:00")

	t.Run("缺少字段", func(t *testing.T) {
		_, err := f.svc.Assign(context.Background(), second.ID, &dto.AssignLectureRequest{InstructorID: f.instructorA}, f.adminID)
		if !errors.Is(err, ErrMissingAssignFields) {
			t.Errorf("期望 ErrMissingAssignFields，实际: %v", err)
		}
	})

	t.Run("过去日期", func(t *testing.T) {
		_, err := f.svc.Assign(context.Background(), second.ID, &dto.AssignLectureRequest{InstructorID: f.instructorA, Date: testYesterday}, f.adminID)
		if !errors.Is(err, scheduling.ErrPastDate) {
			t.Errorf("期望 ErrPastDate，实际: %v", err)
		}
	})

	t.Run("今天但课节时间已过", func(t *testing.T) {
		late := f.mustCreate(t, f.instructorB, "2026-03-13", "08:00", "09:00")
		_, err := f.svc.Assign(context.Background(), late.ID, &dto.AssignLectureRequest{InstructorID: f.instructorB, Date: testToday}, f.adminID)
		if !errors.Is(err, scheduling.ErrStartTimePassed) {
			t.Errorf("期望 ErrStartTimePassed，实际: %v", err)
		}
	})

	t.Run("冲突", func(t *testing.T) {
		_, err := f.svc.Assign(context.Background(), second.ID, &dto.AssignLectureRequest{InstructorID: f.instructorA, Date: testTomorrow}, f.adminID)
		var conflictErr *ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("期望 ConflictError，实际: %v", err)
		}
		if conflictErr.Conflict.ID != first.ID {
			t.Errorf("冲突记录应为第一节课，实际=%s", conflictErr.Conflict.ID)
		}
	})

	t.Run("成功", func(t *testing.T) {
		resp, err := f.svc.Assign(context.Background(), second.ID, &dto.AssignLectureRequest{InstructorID: f.instructorA, Date: "2026-03-12"}, f.adminID)
		if err != nil {
			t.Fatalf("Assign 应成功: %v", err)
		}
		if resp.Instructor == nil || resp.Instructor.ID != f.instructorA {
			t.Errorf("讲师应为 A，实际=%+v", resp.Instructor)
		}
		if resp.Date != "2026-03-12" {
			t.Errorf("期望 date=2026-03-12，实际=%s", resp.Date)
		}
	})
}

// ────────────────────── List ──────────────────────

func TestLectureService_List(t *testing.T) {
	f := setupLectureService(t)
	f.mustCreate(t, f.instructorA, "2026-03-12", "09:00", "10:00")
	f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")
	b := f.mustCreate(t, f.instructorB, "2026-03-20", "09:00", "10:00")
	f.repos.lectures.lectures[b.ID].Status = model.LectureStatusCancelled

	all, err := f.svc.List(context.Background(), &dto.LectureListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 3 || all[0].Date != testTomorrow {
		t.Errorf("期望 3 条且按日期升序，实际=%d 首条=%s", len(all), all[0].Date)
	}

	byStatus, _ := f.svc.List(context.Background(), &dto.LectureListRequest{Status: model.LectureStatusCancelled})
	if len(byStatus) != 1 || byStatus[0].ID != b.ID {
		t.Errorf("按状态过滤应只返回已取消课节，实际=%d", len(byStatus))
	}

	ranged, _ := f.svc.List(context.Background(), &dto.LectureListRequest{From: "2026-03-12", To: "2026-03-12"})
	if len(ranged) != 1 || ranged[0].Date != "2026-03-12" {
		t.Errorf("to 应包含当天，实际=%d", len(ranged))
	}

	if _, err := f.svc.List(context.Background(), &dto.LectureListRequest{From: "03/12"}); !errors.Is(err, ErrInvalidLectureDateArg) {
		t.Errorf("期望 ErrInvalidLectureDateArg，实际: %v", err)
	}

	assigned, _ := f.svc.ListAssigned(context.Background())
	if len(assigned) != 3 {
		t.Errorf("期望 3 条已分配课节，实际=%d", len(assigned))
	}

	byCourse, err := f.svc.ListByCourse(context.Background(), f.courseID)
	if err != nil || len(byCourse) != 3 {
		t.Errorf("按课程查询应返回 3 条，实际=%d err=%v", len(byCourse), err)
	}
	if _, err := f.svc.ListByCourse(context.Background(), uuid.NewString()); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ────────────────────── 端到端场景 ──────────────────────

func TestLectureService_EndToEndScenario(t *testing.T) {
	f := setupLectureService(t)
	ctx := context.Background()

	// 1. A 明天 09:00-10:00 → 成功
	first := f.mustCreate(t, f.instructorA, testTomorrow, "09:00", "10:00")
	if first.Course == nil || first.Instructor == nil {
		t.Fatal("创建结果应包含课程与讲师展示字段")
	}

	// 2. A 同一天 14:00-15:00 → 冲突，携带第一节课
	_, err := f.svc.Create(ctx, f.createReq(f.instructorA, testTomorrow, "14:00", "15:00"), f.adminID)
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) || conflictErr.Conflict.ID != first.ID {
		t.Fatalf("期望与第一节课冲突，实际: %v", err)
	}

	// 3. B 同一天 → 成功
	f.mustCreate(t, f.instructorB, testTomorrow, "09:00", "10:00")

	// 4. 取消第一节课后重试 A 的第二节 → 成功
	if _, err := f.svc.Update(ctx, first.ID, &dto.UpdateLectureRequest{
		Status: dto.Some(model.LectureStatusCancelled),
	}, f.adminID); err != nil {
		t.Fatalf("取消第一节课应成功: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.createReq(f.instructorA, testTomorrow, "14:00", "15:00"), f.adminID); err != nil {
		t.Fatalf("冲突解除后应创建成功: %v", err)
	}
}
