package main

const (
	BulletSpeed  = 30.0
	BulletTTL    = 2.5 // seconds
	BulletRadius = 0.5
)

// Bullet travels in a straight line and does not wrap
type Bullet struct {
	ID      uint64
	OwnerID uint64
	Pos     Vec2
	Vel     Vec2
	TTL     float64
}

// NewBullet creates a bullet leaving pos along angle
func NewBullet(id, owner uint64, pos Vec2, angle float64) *Bullet {
	return &Bullet{
		ID:      id,
		OwnerID: owner,
		Pos:     pos,
		Vel:     Unit(angle).Scale(BulletSpeed),
		TTL:     BulletTTL,
	}
}

// Update moves the bullet and reports whether it is still live.
// A bullet dies when its TTL runs out or it leaves the world rectangle.
func (b *Bullet) Update(dt float64) bool {
	b.TTL -= dt
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	return b.TTL > 0 && InBounds(b.Pos)
}

// ToState converts to protocol state
func (b *Bullet) ToState() BulletState {
	return BulletState{
		ID:      b.ID,
		OwnerID: b.OwnerID,
		Pos:     b.Pos,
		Vel:     b.Vel,
	}
}
