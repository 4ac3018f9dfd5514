package datastore

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Interface implementation with the same
// natural-key uniqueness and rollback semantics as the SQL stores. It backs
// the loader and archiver test suites, where the failure seams (injected
// create errors, transaction rollback) matter more than SQL fidelity.
type MemStore struct {
	mu sync.Mutex

	origins    []Origin
	plants     []Plant
	images     []Image
	botanists  []Botanist
	recordings []Recording

	nextOrigin    uint
	nextImage     uint
	nextBotanist  uint
	nextRecording uint

	// FailCreateRecording, when set, is returned by every CreateRecording
	// call. Used to prove batch atomicity.
	FailCreateRecording error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nextOrigin: 1, nextImage: 1, nextBotanist: 1, nextRecording: 1}
}

func (m *MemStore) Open() error  { return nil }
func (m *MemStore) Close() error { return nil }

// Transaction snapshots the state and restores it when fn fails, matching
// the SQL stores' rollback behavior.
func (m *MemStore) Transaction(fn func(tx Interface) error) error {
	m.mu.Lock()
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restoreLocked(snapshot)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memSnapshot struct {
	origins    []Origin
	plants     []Plant
	images     []Image
	botanists  []Botanist
	recordings []Recording

	nextOrigin    uint
	nextImage     uint
	nextBotanist  uint
	nextRecording uint
}

func (m *MemStore) snapshotLocked() memSnapshot {
	return memSnapshot{
		origins:       append([]Origin(nil), m.origins...),
		plants:        append([]Plant(nil), m.plants...),
		images:        append([]Image(nil), m.images...),
		botanists:     append([]Botanist(nil), m.botanists...),
		recordings:    append([]Recording(nil), m.recordings...),
		nextOrigin:    m.nextOrigin,
		nextImage:     m.nextImage,
		nextBotanist:  m.nextBotanist,
		nextRecording: m.nextRecording,
	}
}

func (m *MemStore) restoreLocked(s memSnapshot) {
	m.origins = s.origins
	m.plants = s.plants
	m.images = s.images
	m.botanists = s.botanists
	m.recordings = s.recordings
	m.nextOrigin = s.nextOrigin
	m.nextImage = s.nextImage
	m.nextBotanist = s.nextBotanist
	m.nextRecording = s.nextRecording
}

func (m *MemStore) GetOrigin(longitude, latitude float64) (*Origin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.origins {
		if m.origins[i].Longitude == longitude && m.origins[i].Latitude == latitude {
			o := m.origins[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateOrigin(origin *Origin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.origins {
		if m.origins[i].Longitude == origin.Longitude && m.origins[i].Latitude == origin.Latitude {
			return ErrDuplicateKey
		}
	}
	origin.ID = m.nextOrigin
	m.nextOrigin++
	m.origins = append(m.origins, *origin)
	return nil
}

func (m *MemStore) GetPlant(id int) (*Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plants {
		if m.plants[i].ID == id {
			p := m.plants[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreatePlant(plant *Plant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.plants {
		if m.plants[i].ID == plant.ID {
			return ErrDuplicateKey
		}
	}
	m.plants = append(m.plants, *plant)
	return nil
}

func (m *MemStore) GetImage(originalURL string) (*Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.images {
		if m.images[i].OriginalURL == originalURL {
			img := m.images[i]
			return &img, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateImage(image *Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.images {
		if m.images[i].OriginalURL == image.OriginalURL {
			return ErrDuplicateKey
		}
	}
	image.ID = m.nextImage
	m.nextImage++
	m.images = append(m.images, *image)
	return nil
}

func (m *MemStore) GetBotanist(email, phone, firstName, lastName string) (*Botanist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.botanists {
		b := m.botanists[i]
		if b.Email == email && b.Phone == phone && b.FirstName == firstName && b.LastName == lastName {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateBotanist(botanist *Botanist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.botanists {
		b := m.botanists[i]
		if b.Email == botanist.Email && b.Phone == botanist.Phone &&
			b.FirstName == botanist.FirstName && b.LastName == botanist.LastName {
			return ErrDuplicateKey
		}
	}
	botanist.ID = m.nextBotanist
	m.nextBotanist++
	m.botanists = append(m.botanists, *botanist)
	return nil
}

func (m *MemStore) CreateRecording(recording *Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateRecording != nil {
		return m.FailCreateRecording
	}
	recording.ID = m.nextRecording
	m.nextRecording++
	m.recordings = append(m.recordings, *recording)
	return nil
}

func (m *MemStore) GetAllRecordings() ([]Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Recording(nil), m.recordings...), nil
}

func (m *MemStore) GetArchiveRows() ([]ArchiveRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plantsByID := make(map[int]Plant, len(m.plants))
	for i := range m.plants {
		plantsByID[m.plants[i].ID] = m.plants[i]
	}
	rows := make([]ArchiveRow, 0, len(m.recordings))
	for i := range m.recordings {
		rec := m.recordings[i]
		plant := plantsByID[rec.PlantID]
		rows = append(rows, ArchiveRow{
			PlantID:        rec.PlantID,
			PlantName:      plant.PlantName,
			ScientificName: plant.ScientificName,
			Taken:          rec.Taken,
			SoilMoisture:   rec.SoilMoisture,
			Temperature:    rec.Temperature,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlantID != rows[j].PlantID {
			return rows[i].PlantID < rows[j].PlantID
		}
		return rows[i].Taken.Before(rows[j].Taken)
	})
	return rows, nil
}

func (m *MemStore) TruncateRecordings() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordings = nil
	return nil
}

// Counts returns the table sizes, a convenience for idempotency assertions.
func (m *MemStore) Counts() (origins, plants, images, botanists, recordings int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.origins), len(m.plants), len(m.images), len(m.botanists), len(m.recordings)
}
