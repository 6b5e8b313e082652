package auth

// Service answers whether a sender may run administrative commands.
// The allow-list is static: loaded once at startup from configuration
// and shared by every admin command.
type Service struct {
	admins map[int64]struct{}
}

func New(adminIDs []int64) *Service {
	s := &Service{admins: make(map[int64]struct{}, len(adminIDs))}
	for _, id := range adminIDs {
		s.admins[id] = struct{}{}
	}
	return s
}

func (s *Service) IsAllowed(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}
